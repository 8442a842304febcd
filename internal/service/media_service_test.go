package service

import (
	"context"
	"errors"
	"testing"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refs(ids ...string) []models.MediaRef {
	out := make([]models.MediaRef, len(ids))
	for i, id := range ids {
		out[i] = models.MediaRef{ID: id, Path: "media/1/" + id, ContentType: "image/jpeg", Kind: models.MediaKindImage}
	}
	return out
}

func storageWith(ids ...string) *fakeStorage {
	s := newFakeStorage()
	for _, id := range ids {
		s.objects["media/1/"+id] = []byte(id)
	}
	return s
}

func TestUploadAll_PreservesOrder(t *testing.T) {
	client := &fakeClient{}
	svc := NewMediaService(storageWith("c", "a", "b"))

	handles, err := svc.UploadAll(context.Background(), client, refs("c", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"h1:c", "h2:a", "h3:b"}, handles)
	assert.Equal(t, []string{"image/jpeg", "image/jpeg", "image/jpeg"}, client.contentTypes)
}

func TestUploadAll_TruncatesToFour(t *testing.T) {
	client := &fakeClient{}
	svc := NewMediaService(storageWith("1", "2", "3", "4", "5"))

	handles, err := svc.UploadAll(context.Background(), client, refs("1", "2", "3", "4", "5"))
	require.NoError(t, err)
	assert.Equal(t, []string{"h1:1", "h2:2", "h3:3", "h4:4"}, handles)
}

func TestUploadAll_Empty(t *testing.T) {
	handles, err := NewMediaService(newFakeStorage()).UploadAll(context.Background(), &fakeClient{}, nil)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestUploadAll_StopsAtFirstFailure(t *testing.T) {
	client := &fakeClient{}
	svc := NewMediaService(storageWith("a", "c"))

	handles, err := svc.UploadAll(context.Background(), client, refs("a", "b", "c"))
	assert.Nil(t, handles)
	require.Error(t, err)

	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Index)
	assert.Equal(t, "b", me.MediaID)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	assert.Contains(t, err.Error(), "attachment 2 (id b)")
	assert.Len(t, client.contentTypes, 1, "attachments after the failure must not be uploaded")
}

func TestUploadAll_MissingFields(t *testing.T) {
	noPath := refs("a")
	noPath[0].Path = ""
	noType := refs("a")
	noType[0].ContentType = ""

	svc := NewMediaService(storageWith("a"))

	_, err := svc.UploadAll(context.Background(), &fakeClient{}, noPath)
	assert.ErrorIs(t, err, errMissingPath)

	_, err = svc.UploadAll(context.Background(), &fakeClient{}, noType)
	assert.ErrorIs(t, err, errMissingContentType)
}

func TestUploadAll_ClientError(t *testing.T) {
	client := &fakeClient{uploadErr: errors.New("media rejected")}
	svc := NewMediaService(storageWith("a"))

	_, err := svc.UploadAll(context.Background(), client, refs("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attachment 1 (id a): uploading to network: media rejected")
}
