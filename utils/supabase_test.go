package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResumeStorageUnconfigured(t *testing.T) {
	assert.Nil(t, NewResumeStorage("", "key", "uploads"))
	assert.Nil(t, NewResumeStorage("https://proj.supabase.co", "", "uploads"))
}

func TestRemoveResumeRejectsForeignURL(t *testing.T) {
	s := NewResumeStorage("https://proj.supabase.co/", "key", "uploads")
	err := s.RemoveResume("https://cdn.example.com/resumes/cv.pdf")
	assert.Error(t, err)

	err = s.RemoveResume("https://proj.supabase.co/storage/v1/object/public/uploads/")
	assert.Error(t, err)
}
