// Package mocks provides gomock mocks for the repository and session ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserRepository(ctrl)
//	users.EXPECT().GetByUsername(gomock.Any(), "alice").Return(user, nil)
package mocks

// UserRepository: Create, GetByID, GetByUsername.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/mmk-blog/internal/core UserRepository

// PostRepository: List, GetByID, Create, Update, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=post_repository_mock.go github.com/target/mmk-blog/internal/core PostRepository

// SessionStore: Save, Get, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/mmk-blog/internal/ports SessionStore
