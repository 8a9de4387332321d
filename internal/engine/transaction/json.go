package transaction

import (
	"fmt"

	"github.com/goccy/go-json"
)

// jsonOp is the wire form of one operation. Exactly one field is set.
type jsonOp struct {
	Retain *int    `json:"retain,omitempty"`
	Insert *string `json:"insert,omitempty"`
	Delete *int    `json:"delete,omitempty"`
}

// MarshalJSON encodes the ChangeSet as a list of single-key objects:
// [{"retain":5},{"insert":"x"},{"delete":2}].
func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	out := make([]jsonOp, len(cs.ops))
	for i, op := range cs.ops {
		switch op.Kind {
		case OpRetain:
			n := op.N
			out[i].Retain = &n
		case OpInsert:
			s := op.Text
			out[i].Insert = &s
		case OpDelete:
			n := op.N
			out[i].Delete = &n
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	var in []jsonOp
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ops := make([]Operation, 0, len(in))
	for i, op := range in {
		switch {
		case op.Retain != nil && op.Insert == nil && op.Delete == nil:
			if *op.Retain < 0 {
				return fmt.Errorf("operation %d: negative retain", i)
			}
			ops = append(ops, Retain(*op.Retain))
		case op.Insert != nil && op.Retain == nil && op.Delete == nil:
			ops = append(ops, InsertText(*op.Insert))
		case op.Delete != nil && op.Retain == nil && op.Insert == nil:
			if *op.Delete < 0 {
				return fmt.Errorf("operation %d: negative delete", i)
			}
			ops = append(ops, Delete(*op.Delete))
		default:
			return fmt.Errorf("operation %d: want exactly one of retain, insert, delete", i)
		}
	}
	*cs = NewChangeSet(ops...)
	return nil
}
