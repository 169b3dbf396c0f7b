package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
)

func multipartHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["files"], 1)
	return form.File["files"][0]
}

func newFileFixture(t *testing.T) (FileService, *settleFixture, string) {
	t.Helper()
	f := newSettleFixture(t)
	dir := t.TempDir()
	svc, err := NewFileService(
		repository.NewFileRepository(f.db),
		repository.NewCreatorRepository(f.db),
		dir, 1024, []string{".jpg", ".png", ".txt"},
	)
	require.NoError(t, err)
	return svc, f, dir
}

func TestUploadStoresAndCategorizes(t *testing.T) {
	svc, f, _ := newFileFixture(t)

	file, err := svc.Upload(context.Background(), f.payer.ID,
		multipartHeader(t, "avatar.PNG", []byte("png-bytes")), FileMeta{Tags: "art", IsPublic: true})
	require.NoError(t, err)

	assert.Equal(t, "avatar.PNG", file.OriginalFilename)
	assert.NotEqual(t, "avatar.PNG", file.Filename)
	assert.Equal(t, "image", file.FileCategory)
	assert.True(t, file.IsPublic)

	// stored on disk under the generated name
	_, err = os.Stat(file.FilePath)
	assert.NoError(t, err)
}

func TestUploadValidation(t *testing.T) {
	svc, f, _ := newFileFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "big.txt", bytes.Repeat([]byte("x"), 2048)), FileMeta{})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "tool.exe", []byte("mz")), FileMeta{})
	assert.ErrorIs(t, err, ErrFileTypeBlocked)
}

func TestUploadRelatedCreatorMustBeOwned(t *testing.T) {
	svc, f, _ := newFileFixture(t)
	ctx := context.Background()

	// f.creator belongs to f.owner, not f.payer
	_, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "clip.png", []byte("x")), FileMeta{RelatedCreatorID: &f.creator.ID})
	assert.ErrorIs(t, err, ErrNotOwner)

	missing := uint(9999)
	_, err = svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "clip.png", []byte("x")), FileMeta{RelatedCreatorID: &missing})
	assert.ErrorIs(t, err, ErrCreatorNotFound)

	file, err := svc.Upload(ctx, f.owner.ID,
		multipartHeader(t, "clip.png", []byte("x")), FileMeta{RelatedCreatorID: &f.creator.ID})
	require.NoError(t, err)
	require.NotNil(t, file.RelatedCreatorID)
	assert.Equal(t, f.creator.ID, *file.RelatedCreatorID)
}

func TestServeRejectsTraversalAndCountsDownloads(t *testing.T) {
	svc, f, _ := newFileFixture(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "notes.txt", []byte("hello")), FileMeta{IsPublic: true})
	require.NoError(t, err)

	_, err = svc.Serve(ctx, "../"+file.Filename)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = svc.Serve(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	path, err := svc.Serve(ctx, file.Filename)
	require.NoError(t, err)
	assert.Equal(t, file.FilePath, path)

	var stored model.UploadedFile
	require.NoError(t, f.db.First(&stored, file.ID).Error)
	assert.EqualValues(t, 1, stored.DownloadCount)
	assert.NotNil(t, stored.LastAccessed)
}

func TestStatsAggregateWholeCollection(t *testing.T) {
	svc, f, _ := newFileFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "a.png", bytes.Repeat([]byte("x"), 100)), FileMeta{IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "b.jpg", bytes.Repeat([]byte("x"), 200)), FileMeta{})
	require.NoError(t, err)
	doc, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "c.txt", bytes.Repeat([]byte("x"), 50)), FileMeta{IsAIGenerated: true})
	require.NoError(t, err)
	// another user's file stays out of the aggregate
	_, err = svc.Upload(ctx, f.owner.ID,
		multipartHeader(t, "z.txt", []byte("x")), FileMeta{})
	require.NoError(t, err)

	_, err = svc.Serve(ctx, doc.Filename)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, f.payer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalFiles)
	assert.EqualValues(t, 350, stats.TotalSize)
	assert.EqualValues(t, 1, stats.TotalDownloads)
	assert.EqualValues(t, 1, stats.PublicFiles)
	assert.EqualValues(t, 1, stats.AIGeneratedFiles)
	assert.EqualValues(t, 2, stats.Categories["image"].Count)
	assert.EqualValues(t, 300, stats.Categories["image"].Size)
	assert.EqualValues(t, 1, stats.Categories["document"].Downloads)
}

func TestDeleteRemovesDiskAndRow(t *testing.T) {
	svc, f, _ := newFileFixture(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, f.payer.ID,
		multipartHeader(t, "trash.txt", []byte("x")), FileMeta{})
	require.NoError(t, err)

	// only the uploader may delete
	err = svc.Delete(ctx, f.owner.ID, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, svc.Delete(ctx, f.payer.ID, file.ID))
	_, err = os.Stat(file.FilePath)
	assert.True(t, os.IsNotExist(err))
	var n int64
	require.NoError(t, f.db.Model(&model.UploadedFile{}).Count(&n).Error)
	assert.Zero(t, n)
}
