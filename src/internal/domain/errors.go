package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")

// ErrVersionConflict is returned by a conditional save when another writer
// committed against the version the caller read. It is consumed by the
// transaction service's retry loop and never reaches a controller.
var ErrVersionConflict = errors.New("account version conflict")

// ErrConcurrencyExhausted is the terminal form of ErrVersionConflict: the
// bounded retry budget ran out while the account stayed contended.
var ErrConcurrencyExhausted = errors.New("too many concurrent updates")

var ErrDuplicateAccountNumber = errors.New("account number already exists")
var ErrDuplicateCustomer = errors.New("Customer already exists")
var ErrAccountCreationFailed = errors.New("unable to create account")
