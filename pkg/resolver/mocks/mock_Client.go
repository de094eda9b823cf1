// Package mocks provides test doubles for the resolver client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	resolver "github.com/sgshaji/PlanProof-sub000/pkg/resolver"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ResolveFields provides a mock function with given fields: ctx, req
func (_m *MockClient) ResolveFields(ctx context.Context, req resolver.ResolveRequest) (*resolver.ResolveResult, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ResolveFields")
	}

	var r0 *resolver.ResolveResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, resolver.ResolveRequest) (*resolver.ResolveResult, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, resolver.ResolveRequest) *resolver.ResolveResult); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*resolver.ResolveResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, resolver.ResolveRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
