package remittance

import "errors"

var (
	ErrBatchNotFound   = errors.New("remittance batch not found")
	ErrBatchNotPending = errors.New("remittance batch is not pending")
)
