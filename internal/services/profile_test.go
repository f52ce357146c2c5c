package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"campusevents/internal/adapters/blob"
	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfile(users *fakeUserRepo, blobs *fakeBlobStore, mail domain.EmailService, policy domain.ProfilePolicy) domain.ProfileService {
	return NewProfileService(users, blobs, mail, policy, 20, testLogger, time.Second)
}

func TestProfileService_UpdatePhoto_ReplacesAndDeletesOld(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(&domain.User{ID: "u1", FirstName: "Ada", Photo: "old.png"})
	blobs := newFakeBlobStore()
	blobs.blobs["old.png"] = []byte("old")
	svc := newTestProfile(users, blobs, nil, domain.ProfilePolicy{})

	p, err := svc.UpdatePhoto(ctx, "u1", "new.png", strings.NewReader("new"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(p.Photo, ".png"))
	assert.NotEqual(t, "old.png", p.Photo)
	assert.Equal(t, p.Photo, users.byID["u1"].Photo)
	assert.Equal(t, []byte("new"), blobs.blobs[p.Photo])
	assert.Equal(t, []string{"old.png"}, blobs.deleted)
	assert.NotContains(t, blobs.blobs, "old.png")
}

func TestProfileService_UpdatePhoto_OldBlobAlreadyAbsent(t *testing.T) {
	users := newFakeUserRepo(&domain.User{ID: "u1", Photo: "old.png"})
	blobs := newFakeBlobStore()
	svc := newTestProfile(users, blobs, nil, domain.ProfilePolicy{})

	p, err := svc.UpdatePhoto(context.Background(), "u1", "new.png", strings.NewReader("new"))
	require.NoError(t, err, "a failed delete of the previous photo must not fail the update")
	assert.Equal(t, users.byID["u1"].Photo, p.Photo)
	assert.Equal(t, []string{"old.png"}, blobs.deleted)
}

func TestProfileService_UpdatePhoto_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		filename string
		saveErr  error
		wantErr  error
	}{
		{name: "not an image", userID: "u1", filename: "notes.txt", wantErr: domain.ErrInvalidInput},
		{name: "no extension", userID: "u1", filename: "photo", wantErr: domain.ErrInvalidInput},
		{name: "unknown user", userID: "ghost", filename: "a.jpg", wantErr: domain.ErrNotFound},
		{name: "blob store down", userID: "u1", filename: "a.jpg", saveErr: errBoom, wantErr: domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserRepo(&domain.User{ID: "u1"})
			blobs := newFakeBlobStore()
			blobs.saveErr = tt.saveErr
			svc := newTestProfile(users, blobs, nil, domain.ProfilePolicy{})

			_, err := svc.UpdatePhoto(context.Background(), tt.userID, tt.filename, strings.NewReader("x"))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, blobs.blobs, "no orphaned blob is left behind")
			assert.Empty(t, users.byID["u1"].Photo)
		})
	}
}

func TestProfileService_OpenPhoto(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.blobs["a.png"] = []byte("img")
	svc := newTestProfile(newFakeUserRepo(), blobs, nil, domain.ProfilePolicy{})

	rc, err := svc.OpenPhoto(context.Background(), "a.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, []byte("img"), data)

	_, err = svc.OpenPhoto(context.Background(), "missing.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileService_OpenPhoto_BadNameIsNotFound(t *testing.T) {
	store, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	svc := NewProfileService(newFakeUserRepo(), store, nil, domain.ProfilePolicy{}, 20, testLogger, time.Second)

	for _, name := range []string{"..", "a.png/..", `..\x.png`} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.OpenPhoto(context.Background(), name)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.NotErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestProfileService_UpdateProfile_EmailPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    domain.ProfilePolicy
		update    domain.ProfileUpdate
		wantEmail string
		wantErr   error
	}{
		{
			name:      "same email accepted",
			update:    domain.ProfileUpdate{FirstName: "Ada", LastName: "L", Email: "ADA@uni.edu"},
			wantEmail: "ada@uni.edu",
		},
		{
			name:      "omitted email keeps stored",
			update:    domain.ProfileUpdate{FirstName: "Ada", LastName: "L"},
			wantEmail: "ada@uni.edu",
		},
		{
			name:    "changed email rejected when read-only",
			update:  domain.ProfileUpdate{FirstName: "Ada", LastName: "L", Email: "new@uni.edu"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:      "changed email allowed when editable",
			policy:    domain.ProfilePolicy{EmailEditable: true},
			update:    domain.ProfileUpdate{FirstName: "Ada", LastName: "L", Email: "new@uni.edu"},
			wantEmail: "new@uni.edu",
		},
		{
			name:    "malformed email rejected",
			policy:  domain.ProfilePolicy{EmailEditable: true},
			update:  domain.ProfileUpdate{FirstName: "Ada", LastName: "L", Email: "nope"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "names required",
			update:  domain.ProfileUpdate{FirstName: " ", LastName: "L"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserRepo(&domain.User{ID: "u1", FirstName: "A", LastName: "B", Email: "ada@uni.edu"})
			svc := newTestProfile(users, newFakeBlobStore(), nil, tt.policy)

			p, err := svc.UpdateProfile(context.Background(), "u1", tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "A", users.byID["u1"].FirstName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, p.Email)
			assert.Equal(t, "Ada", p.FirstName)
		})
	}
}

func TestProfileService_UpdateProfile_DuplicateEmail(t *testing.T) {
	users := newFakeUserRepo(&domain.User{ID: "u1", Email: "a@uni.edu"})
	users.updateErr = domain.ErrDuplicateEmail
	svc := newTestProfile(users, newFakeBlobStore(), nil, domain.ProfilePolicy{EmailEditable: true})

	_, err := svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{FirstName: "A", LastName: "B", Email: "taken@uni.edu"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestProfileService_ListSuggestions_ExcludesCaller(t *testing.T) {
	users := newFakeUserRepo(
		&domain.User{ID: "u1"}, &domain.User{ID: "u2"}, &domain.User{ID: "u3"},
	)
	svc := newTestProfile(users, newFakeBlobStore(), nil, domain.ProfilePolicy{})

	for _, caller := range []string{"u1", "u2", "u3", "u4"} {
		got, err := svc.ListSuggestions(context.Background(), caller)
		require.NoError(t, err)
		for _, p := range got {
			assert.NotEqual(t, caller, p.ID)
		}
	}
}

func TestProfileService_AddConnection(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo(
		&domain.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@uni.edu"},
		&domain.User{ID: "u2", FirstName: "Alan", Email: "alan@uni.edu"},
	)
	mail := &fakeEmailService{}
	svc := newTestProfile(users, newFakeBlobStore(), mail, domain.ProfilePolicy{})

	require.NoError(t, svc.AddConnection(ctx, "u1", "u2"))
	require.NoError(t, svc.AddConnection(ctx, "u1", "u2"))

	assert.Equal(t, []string{"u2"}, users.byID["u1"].Connections)
	assert.Empty(t, users.byID["u2"].Connections, "connections are one-directional")
	require.Len(t, mail.sent, 1, "only a new connection is announced")
	assert.Equal(t, &domain.ConnectionEmailData{
		Email: "alan@uni.edu", FirstName: "Alan", FromFirstName: "Ada", FromLastName: "Lovelace",
	}, mail.sent[0])

	assert.ErrorIs(t, svc.AddConnection(ctx, "u1", "u1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.AddConnection(ctx, "u1", ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.AddConnection(ctx, "u1", "ghost"), domain.ErrNotFound)
}

func TestProfileService_AddConnection_EmailFailureIsNotFatal(t *testing.T) {
	users := newFakeUserRepo(&domain.User{ID: "u1"}, &domain.User{ID: "u2", Email: "b@uni.edu"})
	mail := &fakeEmailService{err: errBoom}
	svc := newTestProfile(users, newFakeBlobStore(), mail, domain.ProfilePolicy{})

	require.NoError(t, svc.AddConnection(context.Background(), "u1", "u2"))
	assert.Len(t, mail.sent, 1)
}

func TestProfileService_GetProfile(t *testing.T) {
	users := newFakeUserRepo(&domain.User{ID: "u1", FirstName: "Ada", Type: domain.UserTypeStudent, Connections: []string{"x"}})
	svc := newTestProfile(users, newFakeBlobStore(), nil, domain.ProfilePolicy{})

	p, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Profile{ID: "u1", FirstName: "Ada", Type: domain.UserTypeStudent}, p)

	users.getErr = errBoom
	_, err = svc.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrStorage)
}
