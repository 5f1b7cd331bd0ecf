package envelope

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeError marks bytes that are structurally not an envelope. Decode
// failures on a live subscriber are logged and skipped, never fatal.
type DecodeError struct {
	msg string
}

func (e *DecodeError) Error() string {
	return "decode envelope: " + e.msg
}

func decodeErrorf(format string, v ...interface{}) *DecodeError {
	return &DecodeError{msg: fmt.Sprintf(format, v...)}
}

type wireEnvelope struct {
	Identifier *string         `json:"identifier"`
	Kind       json.RawMessage `json:"kind"`
	ProofData  json.RawMessage `json:"proof_data"`
}

type wireKind struct {
	Type *string `json:"type"`
	ID   *uint64 `json:"id,omitempty"`
}

type wireSP1 struct {
	Family          string  `json:"family"`
	Version         *uint32 `json:"version"`
	VerificationKey *string `json:"verification_key"`
	Proof           []byte  `json:"proof"`
	PublicValue     *string `json:"public_value"`
}

// Encode serializes an envelope to its JSON wire form.
func Encode(e *Envelope) ([]byte, error) {
	if e.Identifier == "" {
		return nil, errors.New("encode envelope: empty identifier")
	}
	if e.Kind.Type == "" {
		return nil, errors.New("encode envelope: empty kind tag")
	}

	kind := wireKind{Type: &e.Kind.Type}
	if e.Kind.Type == KindExecutionProof {
		id := e.Kind.ExecutionID
		kind.ID = &id
	}
	rawKind, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}

	var rawData json.RawMessage
	switch {
	case e.Data.Known():
		vk := hex.EncodeToString(e.Data.SP1.VerificationKey[:])
		pv := hex.EncodeToString(e.Data.SP1.PublicValue)
		rawData, err = json.Marshal(wireSP1{
			Family:          FamilySP1,
			Version:         &e.Data.SP1.Version,
			VerificationKey: &vk,
			Proof:           e.Data.SP1.Proof,
			PublicValue:     &pv,
		})
		if err != nil {
			return nil, err
		}
	case len(e.Data.Raw) > 0:
		rawData = e.Data.Raw
	default:
		return nil, fmt.Errorf("encode envelope: no payload for proof family %q", e.Data.Family)
	}

	return json.Marshal(wireEnvelope{
		Identifier: &e.Identifier,
		Kind:       rawKind,
		ProofData:  rawData,
	})
}

// Decode parses envelope bytes. The outer shape is strict: identifier, kind
// tag and family tag must be present and well typed. Unknown kind or family
// values decode into their fallback variants instead of failing; the inner
// public value stays opaque at this layer.
func Decode(raw []byte) (*Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, decodeErrorf("%v", err)
	}
	if wire.Identifier == nil || *wire.Identifier == "" {
		return nil, decodeErrorf("missing identifier")
	}

	kind, err := decodeKind(wire.Kind)
	if err != nil {
		return nil, err
	}

	data, err := decodeProofData(wire.ProofData)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Identifier: *wire.Identifier,
		Kind:       kind,
		Data:       data,
	}, nil
}

func decodeKind(raw json.RawMessage) (ProofKind, error) {
	if len(raw) == 0 {
		return ProofKind{}, decodeErrorf("missing kind")
	}
	var wire wireKind
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ProofKind{}, decodeErrorf("kind: %v", err)
	}
	if wire.Type == nil || *wire.Type == "" {
		return ProofKind{}, decodeErrorf("missing kind tag")
	}

	kind := ProofKind{Type: *wire.Type}
	if kind.Type == KindExecutionProof {
		if wire.ID == nil {
			return ProofKind{}, decodeErrorf("execution proof kind without id")
		}
		kind.ExecutionID = *wire.ID
	}
	return kind, nil
}

func decodeProofData(raw json.RawMessage) (ProofData, error) {
	if len(raw) == 0 {
		return ProofData{}, decodeErrorf("missing proof_data")
	}
	var probe struct {
		Family *string `json:"family"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ProofData{}, decodeErrorf("proof_data: %v", err)
	}
	if probe.Family == nil || *probe.Family == "" {
		return ProofData{}, decodeErrorf("missing proof family tag")
	}

	if *probe.Family != FamilySP1 {
		// Forward compatibility: keep the raw object for families this
		// consumer does not understand.
		return ProofData{Family: *probe.Family, Raw: append(json.RawMessage(nil), raw...)}, nil
	}

	var wire wireSP1
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ProofData{}, decodeErrorf("proof_data: %v", err)
	}
	if wire.Version == nil {
		return ProofData{}, decodeErrorf("missing proof version")
	}
	if wire.VerificationKey == nil {
		return ProofData{}, decodeErrorf("missing verification_key")
	}
	vkBytes, err := hex.DecodeString(*wire.VerificationKey)
	if err != nil {
		return ProofData{}, decodeErrorf("verification_key: %v", err)
	}
	if len(vkBytes) != 32 {
		return ProofData{}, decodeErrorf("verification_key: expected 32 bytes, got %d", len(vkBytes))
	}
	if wire.PublicValue == nil {
		return ProofData{}, decodeErrorf("missing public_value")
	}
	publicValue, err := hex.DecodeString(*wire.PublicValue)
	if err != nil {
		return ProofData{}, decodeErrorf("public_value: %v", err)
	}

	sp1 := &SP1ProofData{
		Version:     *wire.Version,
		Proof:       wire.Proof,
		PublicValue: publicValue,
	}
	copy(sp1.VerificationKey[:], vkBytes)
	return ProofData{Family: FamilySP1, SP1: sp1}, nil
}
