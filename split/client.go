package split

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"gonum.org/v1/gonum/mat"

	"matprop/core/ckkswrapper"
	"matprop/nn"
	"matprop/nn/layers"
)

// Partition splits net into its first dense layer, which the server
// evaluates, and the remaining layers, which stay with the client.
func Partition(net *nn.Sequential) (*layers.Dense, *nn.Sequential, error) {
	if len(net.Layers) < 2 {
		return nil, nil, fmt.Errorf("network with %d layers cannot be split", len(net.Layers))
	}
	head, ok := net.Layers[0].(*layers.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("first layer %s is not dense", net.Layers[0].Tag())
	}
	return head, &nn.Sequential{Layers: net.Layers[1:]}, nil
}

// Client holds the secret key and the layers after the server's cut.
type Client struct {
	he     *ckkswrapper.HeContext
	inDim  int
	hidden int
	block  int
	tail   nn.Module

	// BytesSent and BytesReceived count ciphertext payload bytes.
	BytesSent     int
	BytesReceived int
}

// NewClient creates a client for a server layer of shape (inDim, hidden).
func NewClient(he *ckkswrapper.HeContext, inDim, hidden int, tail nn.Module) *Client {
	return &Client{
		he:     he,
		inDim:  inDim,
		hidden: hidden,
		block:  BlockSize(inDim),
		tail:   tail,
	}
}

// Pack replicates x once per hidden unit at stride BlockSize(inDim).
func (c *Client) Pack(x []float64) []float64 {
	v := make([]float64, c.hidden*c.block)
	for j := 0; j < c.hidden; j++ {
		copy(v[j*c.block:], x)
	}
	return v
}

// SendAll encrypts every row of x and writes it to p, followed by MsgDone.
func (c *Client) SendAll(p *Protocol, x *mat.Dense) error {
	r, cols := x.Dims()
	if cols != c.inDim {
		return fmt.Errorf("input has %d features, server layer expects %d", cols, c.inDim)
	}
	for i := 0; i < r; i++ {
		ct, err := c.he.EncryptValues(c.Pack(x.RawRowView(i)))
		if err != nil {
			return fmt.Errorf("encrypt sample %d: %w", i, err)
		}
		enc, err := marshal(ct)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		if err := p.SendForward(i, enc.Data, enc.Level, enc.Scale); err != nil {
			return fmt.Errorf("send sample %d: %w", i, err)
		}
		c.BytesSent += len(enc.Data)
	}
	return p.SendDone()
}

// ReceiveAll reads n results from p and returns the decrypted hidden
// activations, one row per sample.
func (c *Client) ReceiveAll(p *Protocol, n int) (*mat.Dense, error) {
	hidden := mat.NewDense(n, c.hidden, nil)
	seen := make([]bool, n)
	for {
		payload, err := p.ReceiveForward()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if payload.SampleID < 0 || payload.SampleID >= n {
			return nil, fmt.Errorf("unexpected sample id %d", payload.SampleID)
		}
		c.BytesReceived += len(payload.Ciphertext)

		ct := new(rlwe.Ciphertext)
		if err := ct.UnmarshalBinary(payload.Ciphertext); err != nil {
			return nil, fmt.Errorf("sample %d: unmarshal: %w", payload.SampleID, err)
		}
		slots, err := c.he.DecryptValues(ct)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", payload.SampleID, err)
		}
		row := hidden.RawRowView(payload.SampleID)
		for j := range row {
			row[j] = slots[j*c.block]
		}
		seen[payload.SampleID] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("no result for sample %d", i)
		}
	}
	return hidden, nil
}

// Predict runs x through srv and the local tail. The exchange is buffered in
// memory: all requests are written before the server reads any.
func (c *Client) Predict(srv *Server, x *mat.Dense) (*mat.Dense, error) {
	var toServer, toClient bytes.Buffer
	if err := c.SendAll(NewProtocol(nil, &toServer), x); err != nil {
		return nil, err
	}
	if err := srv.Handle(NewProtocol(&toServer, &toClient)); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	r, _ := x.Dims()
	hidden, err := c.ReceiveAll(NewProtocol(&toClient, nil), r)
	if err != nil {
		return nil, err
	}
	return c.tail.Forward(hidden)
}
