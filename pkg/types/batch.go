package types

// BatchItemError reports one failed item of a batch operation.
type BatchItemError struct {
	ID      string `json:"id"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// BatchSummary is returned by operations that continue past per-item failures.
type BatchSummary struct {
	SuccessCount int              `json:"success_count"`
	FailCount    int              `json:"fail_count"`
	Errors       []BatchItemError `json:"errors,omitempty"`
}

// Succeeded counts one successful item.
func (b *BatchSummary) Succeeded() {
	b.SuccessCount++
}

// Failed records one failed item.
func (b *BatchSummary) Failed(id, code string, err error) {
	b.FailCount++
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.Errors = append(b.Errors, BatchItemError{ID: id, Code: code, Message: msg})
}
