// FILE: internal/repository/memory/factory.go
package memory

import (
	"context"
	"fmt"

	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/unitofwork"
)

// Factory satisfies unitofwork.RepositoryFactory over the in-memory repos.
// Transactions are no-ops: every guarded update is already atomic under the
// repository mutex.
type Factory struct {
	Responses  *ResponseRepository
	Interviews *InterviewRepository
}

func NewFactory() *Factory {
	return &Factory{
		Responses:  NewResponseRepository(),
		Interviews: NewInterviewRepository(),
	}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUnitOfWork{factory: f}
}

type memoryUnitOfWork struct {
	factory *Factory
	inTx    bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	u.inTx = false
	return nil
}

func (u *memoryUnitOfWork) ResponseRepository() contract.ResponseRepository {
	return u.factory.Responses
}

func (u *memoryUnitOfWork) InterviewRepository() contract.InterviewRepository {
	return u.factory.Interviews
}
