// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrUnauthenticated indicates the caller presented no or invalid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrNoSubscription indicates the account has no active subscription.
var ErrNoSubscription = errors.New("no active subscription")

// ErrCreditExhausted indicates the account's credit ledger is at or over its
// limit before dispatch. No provider call is made and nothing is charged.
var ErrCreditExhausted = errors.New("credit limit exhausted")

// ErrProvider indicates the LLM provider call failed or returned unusable data.
var ErrProvider = errors.New("llm provider error")
