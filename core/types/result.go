package types

import (
	"encoding/json"
	"fmt"
)

// ExecStatus is the discriminant of an execution result (spec §3: "result:
// {Ok(string) | Err(string) | None}").
type ExecStatus string

const (
	ResultNone ExecStatus = "None"
	ResultOk   ExecStatus = "Ok"
	ResultErr  ExecStatus = "Err"
)

// ExecResult is the post-execution outcome attached to a transaction or
// proposal. A zero value is ResultNone (not yet executed).
type ExecResult struct {
	Status  ExecStatus
	Message string
}

func OkResult(message string) ExecResult {
	return ExecResult{Status: ResultOk, Message: message}
}

func ErrResult(message string) ExecResult {
	return ExecResult{Status: ResultErr, Message: message}
}

func (r ExecResult) IsNone() bool { return r.Status == "" || r.Status == ResultNone }
func (r ExecResult) IsOk() bool   { return r.Status == ResultOk }
func (r ExecResult) IsErr() bool  { return r.Status == ResultErr }

// String renders the result the way the original's derived Debug output
// does: None, or Ok("msg")/Err("msg").
func (r ExecResult) String() string {
	if r.IsNone() {
		return "None"
	}
	return fmt.Sprintf("%s(%q)", r.Status, r.Message)
}

func (r ExecResult) MarshalJSON() ([]byte, error) {
	if r.IsNone() {
		return json.Marshal(nil)
	}
	return json.Marshal(map[string]string{string(r.Status): r.Message})
}

func (r *ExecResult) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ExecResult{Status: ResultNone}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if msg, ok := m["Ok"]; ok {
		*r = OkResult(msg)
		return nil
	}
	if msg, ok := m["Err"]; ok {
		*r = ErrResult(msg)
		return nil
	}
	*r = ExecResult{Status: ResultNone}
	return nil
}
