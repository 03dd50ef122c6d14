package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/mmk-blog/internal/errors"
)

func TestCreatePostRequest_Validate(t *testing.T) {
	req := CreatePostRequest{Title: "   ", Body: "text"}
	req.Normalize()

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "title", apperrors.GetField(err))
	assert.Equal(t, "Title is required.", apperrors.UserMessage(err, ""))

	req = CreatePostRequest{Title: "  Hello ", Body: ""}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Hello", req.Title)
}

func TestUpdatePostRequest_Validate(t *testing.T) {
	req := UpdatePostRequest{Title: "", Body: "b"}
	req.Normalize()
	assert.True(t, apperrors.IsValidation(req.Validate()))

	req = UpdatePostRequest{Title: "t", Body: "  keep spacing  "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "  keep spacing  ", req.Body)
}
