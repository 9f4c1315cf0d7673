package split

import (
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"

	"matprop/core/ckkswrapper"
	"matprop/nn/layers"
)

// BlockSize is the number of slots reserved per hidden unit: the next power
// of two that holds inDim inputs.
func BlockSize(inDim int) int {
	b := 1
	for b < inDim {
		b <<= 1
	}
	return b
}

// Rotations lists the left rotations that sum a block into its first slot.
func Rotations(inDim int) []int {
	var rots []int
	for r := 1; r < BlockSize(inDim); r <<= 1 {
		rots = append(rots, r)
	}
	return rots
}

// Server evaluates a plaintext dense layer on encrypted inputs.
type Server struct {
	kit     *ckkswrapper.ServerKit
	eval    *CountingEvaluator
	in, out int
	block   int
	weights []float64 // W[i][j] at slot j*block+i
	bias    []float64 // b[j] at slot j*block

	Verbose bool
	Log     io.Writer
}

// NewServer packs the layer's weights for the kit's slot count.
func NewServer(layer *layers.Dense, kit *ckkswrapper.ServerKit) (*Server, error) {
	in, out := layer.Dims()
	block := BlockSize(in)
	if out*block > kit.Params.MaxSlots() {
		return nil, fmt.Errorf("layer %s needs %d slots, have %d", layer.Tag(), out*block, kit.Params.MaxSlots())
	}
	s := &Server{
		kit:     kit,
		eval:    NewCountingEvaluator(kit.Evaluator),
		in:      in,
		out:     out,
		block:   block,
		weights: make([]float64, out*block),
		bias:    make([]float64, out*block),
	}
	for j := 0; j < out; j++ {
		for i := 0; i < in; i++ {
			s.weights[j*block+i] = layer.W.At(i, j)
		}
		s.bias[j*block] = layer.B.At(0, j)
	}
	return s, nil
}

// Evaluate returns Enc(xW + b) for an input packed once per output unit.
func (s *Server) Evaluate(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ckkswrapper.NeedsRescaleBudget(ct, 1) {
		return nil, fmt.Errorf("ciphertext at level %d cannot be rescaled", ct.Level())
	}
	eval := s.eval

	wPt := hefloat.NewPlaintext(s.kit.Params, ct.Level())
	if err := s.kit.Encoder.Encode(s.weights, wPt); err != nil {
		return nil, fmt.Errorf("encode weights: %w", err)
	}
	res, err := eval.MulNew(ct, wPt)
	if err != nil {
		return nil, fmt.Errorf("mul: %w", err)
	}
	if err := eval.Rescale(res, res); err != nil {
		return nil, fmt.Errorf("rescale: %w", err)
	}

	for _, r := range Rotations(s.in) {
		rot, err := eval.RotateNew(res, r)
		if err != nil {
			return nil, fmt.Errorf("rotate %d: %w", r, err)
		}
		if err := eval.Add(res, rot, res); err != nil {
			return nil, fmt.Errorf("add rotation %d: %w", r, err)
		}
	}

	bPt := hefloat.NewPlaintext(s.kit.Params, res.Level())
	bPt.Scale = res.Scale
	if err := s.kit.Encoder.Encode(s.bias, bPt); err != nil {
		return nil, fmt.Errorf("encode bias: %w", err)
	}
	if err := eval.AddPlain(res, bPt, res); err != nil {
		return nil, fmt.Errorf("add bias: %w", err)
	}
	return res, nil
}

// Handle serves forward requests from p until the client sends MsgDone, then
// answers with MsgDone. A request that fails is answered with MsgError and
// the loop continues.
func (s *Server) Handle(p *Protocol) error {
	for {
		payload, err := p.ReceiveForward()
		if err == io.EOF {
			return p.SendDone()
		}
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		s.logf("sample %d received (level %d)", payload.SampleID, payload.Level)

		out, err := s.handleOne(payload)
		if err != nil {
			s.logf("sample %d: %v", payload.SampleID, err)
			if err := p.SendError(fmt.Errorf("sample %d: %w", payload.SampleID, err)); err != nil {
				return err
			}
			continue
		}
		if err := p.SendForwardResult(payload.SampleID, out.Data, out.Level, out.Scale); err != nil {
			return fmt.Errorf("send sample %d: %w", payload.SampleID, err)
		}
	}
}

// Ops returns the operation counters of the server's evaluator.
func (s *Server) Ops() *CountingEvaluator { return s.eval }

type encoded struct {
	Data  []byte
	Level int
	Scale float64
}

func (s *Server) handleOne(payload *ForwardPayload) (*encoded, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(payload.Ciphertext); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	res, err := s.Evaluate(ct)
	if err != nil {
		return nil, err
	}
	return marshal(res)
}

func marshal(ct *rlwe.Ciphertext) (*encoded, error) {
	data, err := ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return &encoded{Data: data, Level: ct.Level(), Scale: ct.Scale.Float64()}, nil
}

func (s *Server) logf(format string, args ...interface{}) {
	if !s.Verbose || s.Log == nil {
		return
	}
	fmt.Fprintf(s.Log, "[server] "+format+"\n", args...)
}
