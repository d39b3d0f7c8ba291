// internal/protocol/envelope.go
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ---- methods ----

const (
	MethodGetDevice     = "Marstek.GetDevice"
	MethodBatGetStatus  = "Bat.GetStatus"
	MethodPVGetStatus   = "PV.GetStatus"
	MethodESGetStatus   = "ES.GetStatus"
	MethodESGetMode     = "ES.GetMode"
	MethodEMGetStatus   = "EM.GetStatus"
	MethodWifiGetStatus = "Wifi.GetStatus"
	MethodESSetMode     = "ES.SetMode"
)

// ErrDecode is wrapped by every reply parsing failure.
var ErrDecode = errors.New("decode reply")

// DecodeError describes why a reply could not be turned into a Result.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode reply: %s: %v", e.Reason, e.Err)
	}
	return "decode reply: " + e.Reason
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
func (e *DecodeError) Unwrap() error        { return e.Err }

// Request is the fixed request envelope. The device ignores id; it is always 0.
type Request struct {
	ID     int         `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

// deviceParams is the params object of every component query.
type deviceParams struct {
	ID int `json:"id"`
}

// Encode serializes {"id":0,"method":<method>,"params":<params>}.
// nil params encode as {}.
func Encode(method string, params interface{}) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	b, err := json.Marshal(Request{ID: 0, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	return b, nil
}

// StatusQuery encodes a component status query (params {"id":0}).
func StatusQuery(method string) ([]byte, error) {
	return Encode(method, deviceParams{ID: 0})
}

// GetDevice encodes the identity/reachability probe.
func GetDevice() ([]byte, error) {
	return Encode(MethodGetDevice, nil)
}

type replyEnvelope struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Decode parses a reply envelope and returns its result object.
// Malformed JSON, an error member, or a missing/non-object result are DecodeErrors.
func Decode(raw []byte) (Result, error) {
	var env replyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed json", Err: err}
	}
	return env.result()
}

func (env replyEnvelope) result() (Result, error) {
	if len(env.Error) > 0 && !isJSONNull(env.Error) {
		return nil, &DecodeError{Reason: "device error " + compact(env.Error)}
	}
	if len(env.Result) == 0 || isJSONNull(env.Result) {
		return nil, &DecodeError{Reason: "no result object"}
	}

	dec := json.NewDecoder(bytes.NewReader(env.Result))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, &DecodeError{Reason: "result is not an object", Err: err}
	}
	return Result(fields), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
