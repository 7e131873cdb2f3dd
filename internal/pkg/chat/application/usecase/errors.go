package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
// Controllers surface it generically; the wrapped detail stays in server logs.
var ErrPersistence = fmt.Errorf("chat use case persistence error")
