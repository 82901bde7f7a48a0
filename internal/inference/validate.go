package inference

import "github.com/samcharles93/inferd/internal/model"

// ValidateInputs enforces the Run precondition against the registry: one
// buffer per input, each of the exact byte length the descriptor implies.
// A violation is a typed error, never a truncation.
func ValidateInputs(md *model.Metadata, raw [][]byte) error {
	inputs := md.Inputs()
	if len(raw) != len(inputs) {
		return countMismatch(len(inputs), len(raw))
	}
	for i, in := range inputs {
		if want, got := in.ByteSize(), int64(len(raw[i])); want != got {
			return sizeMismatch(i, want, got)
		}
	}
	return nil
}
