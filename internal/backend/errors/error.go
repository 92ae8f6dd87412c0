// Package errors provides the sentinel errors of the catalog backend.
package errors

import "errors"

var ErrDocumentNotFound = errors.New("document not found")
var ErrOptimisticLock = errors.New("optimistic lock error: the record has been modified by another transaction")

var ErrProductNotFound = errors.New("product not found")
var ErrUserNotFound = errors.New("user not found")
var ErrOrderNotFound = errors.New("order not found")

var ErrInvalidInput = errors.New("invalid input")
var ErrEmailTaken = errors.New("email already registered")
