package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaList_ValueAndScan(t *testing.T) {
	in := MediaList{
		{ID: "m1", Path: "media/1/m1", ContentType: "image/png", Kind: MediaKindImage},
		{ID: "m2", Path: "media/1/m2", ContentType: "video/mp4", Kind: MediaKindVideo},
	}

	v, err := in.Value()
	require.NoError(t, err)

	var out MediaList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestMediaList_NilIsEmptyArray(t *testing.T) {
	var m MediaList
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestMediaList_ScanRejectsUnknownType(t *testing.T) {
	var m MediaList
	assert.Error(t, m.Scan(42))
	assert.Error(t, m.Scan("not json"))
}

func TestKindFromContentType(t *testing.T) {
	assert.Equal(t, MediaKindVideo, KindFromContentType("video/mp4"))
	assert.Equal(t, MediaKindVideo, KindFromContentType("Video/QuickTime"))
	assert.Equal(t, MediaKindImage, KindFromContentType("image/gif"))
	assert.Equal(t, MediaKindImage, KindFromContentType(""))
}

func TestItemStatus(t *testing.T) {
	assert.True(t, StatusQueued.IsValid())
	assert.False(t, ItemStatus("archived").IsValid())

	assert.True(t, StatusScheduled.IsSweepEligible())
	assert.True(t, StatusQueued.IsSweepEligible())
	assert.False(t, StatusManual.IsSweepEligible())
	assert.False(t, StatusDraft.IsSweepEligible())

	assert.True(t, StatusManual.IsEditable())
	assert.False(t, StatusProcessing.IsEditable())
	assert.False(t, StatusPosted.IsEditable())
}

func TestIsValidUserTransition(t *testing.T) {
	tests := []struct {
		from, to ItemStatus
		want     bool
	}{
		{StatusDraft, StatusScheduled, true},
		{StatusScheduled, StatusManual, true},
		{StatusFailed, StatusQueued, true},
		{StatusDraft, StatusDraft, false},
		{StatusScheduled, StatusPosted, false},
		{StatusProcessing, StatusDraft, false},
		{StatusPosted, StatusScheduled, false},
		{StatusDraft, StatusFailed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidUserTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
