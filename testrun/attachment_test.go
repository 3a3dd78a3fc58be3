package testrun

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentKind_IsValid(t *testing.T) {
	tests := []struct {
		name string
		kind AttachmentKind
		want bool
	}{
		{"image is valid", AttachmentKindImage, true},
		{"video is valid", AttachmentKindVideo, true},
		{"log is valid", AttachmentKindLog, true},
		{"document is valid", AttachmentKindDocument, true},
		{"invalid kind", AttachmentKind("invalid"), false},
		{"empty kind", AttachmentKind(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestExecutionAttachment_Validate(t *testing.T) {
	execID := uuid.New()

	tests := []struct {
		name       string
		attachment ExecutionAttachment
		wantErr    error
	}{
		{
			name: "valid attachment",
			attachment: ExecutionAttachment{
				ExecutionID: execID,
				Kind:        AttachmentKindImage,
				Path:        "executions/2026/failure.png",
				FileName:    "failure.png",
				FileSize:    1024,
			},
			wantErr: nil,
		},
		{
			name: "missing execution_id",
			attachment: ExecutionAttachment{
				Kind:     AttachmentKindImage,
				Path:     "executions/2026/failure.png",
				FileName: "failure.png",
			},
			wantErr: ErrExecutionNotFound,
		},
		{
			name: "invalid kind",
			attachment: ExecutionAttachment{
				ExecutionID: execID,
				Kind:        AttachmentKind("invalid"),
				Path:        "executions/2026/failure.png",
				FileName:    "failure.png",
			},
			wantErr: ErrInvalidAttachmentKind,
		},
		{
			name: "missing path",
			attachment: ExecutionAttachment{
				ExecutionID: execID,
				Kind:        AttachmentKindImage,
				FileName:    "failure.png",
			},
			wantErr: ErrInvalidAttachmentPath,
		},
		{
			name: "missing file name",
			attachment: ExecutionAttachment{
				ExecutionID: execID,
				Kind:        AttachmentKindImage,
				Path:        "executions/2026/failure.png",
			},
			wantErr: ErrInvalidFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attachment.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMySQLAttachmentStore(t *testing.T) {
	ctx := context.Background()

	newAttachment := func(execID uuid.UUID, fileName string) *ExecutionAttachment {
		return &ExecutionAttachment{
			ExecutionID: execID,
			Kind:        AttachmentKindImage,
			Path:        "executions/" + execID.String() + "/" + fileName,
			FileName:    fileName,
			FileSize:    2048,
			MimeType:    "image/png",
			Checksum:    "9c56cc51b374c3ba189210d5b6d4bf57790d351c96c47c02190ecf1e430635ab",
			UploadedBy:  uuid.New(),
		}
	}

	t.Run("create and retrieve", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		attachment := newAttachment(execs[0].ID, "failure.png")
		require.NoError(t, s.attachments.Create(ctx, attachment))
		assert.NotEqual(t, uuid.Nil, attachment.ID)

		retrieved, err := s.attachments.GetByID(ctx, attachment.ID)
		require.NoError(t, err)
		assert.Equal(t, attachment.FileName, retrieved.FileName)
		assert.Equal(t, attachment.Checksum, retrieved.Checksum)
	})

	t.Run("create against missing execution returns error", func(t *testing.T) {
		s := setupTestStores(t)
		seedRun(t, s, 1)

		err := s.attachments.Create(ctx, newAttachment(uuid.New(), "failure.png"))
		assert.ErrorIs(t, err, ErrExecutionNotFound)
	})

	t.Run("list by execution", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 2)

		require.NoError(t, s.attachments.Create(ctx, newAttachment(execs[0].ID, "first.png")))
		require.NoError(t, s.attachments.Create(ctx, newAttachment(execs[0].ID, "second.png")))
		require.NoError(t, s.attachments.Create(ctx, newAttachment(execs[1].ID, "other.png")))

		attachments, err := s.attachments.ListByExecution(ctx, execs[0].ID)
		require.NoError(t, err)
		assert.Len(t, attachments, 2)
	})

	t.Run("delete", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		attachment := newAttachment(execs[0].ID, "failure.png")
		require.NoError(t, s.attachments.Create(ctx, attachment))
		require.NoError(t, s.attachments.Delete(ctx, attachment.ID))

		_, err := s.attachments.GetByID(ctx, attachment.ID)
		assert.ErrorIs(t, err, ErrAttachmentNotFound)
	})

	t.Run("delete non-existent returns error", func(t *testing.T) {
		s := setupTestStores(t)
		err := s.attachments.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrAttachmentNotFound)
	})
}
