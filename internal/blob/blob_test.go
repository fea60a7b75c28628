package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCheckImageSize(t *testing.T) {
	cases := []struct {
		name string
		kind ImageKind
		size int64
		ok   bool
	}{
		{"map at limit", ImageMapBackground, MaxMapImageBytes, true},
		{"map over limit", ImageMapBackground, MaxMapImageBytes + 1, false},
		{"avatar at limit", ImageAvatar, MaxAvatarBytes, true},
		{"avatar over limit", ImageAvatar, MaxAvatarBytes + 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckImageSize(tc.kind, tc.size)
			if tc.ok && err != nil {
				t.Fatalf("unexpected rejection: %v", err)
			}
			if !tc.ok {
				var tooLarge ErrTooLarge
				if !errors.As(err, &tooLarge) {
					t.Fatalf("expected ErrTooLarge, got %v", err)
				}
			}
		})
	}
	if err := CheckImageSize("poster", 1); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	info, err := store.Put(ctx, "sess/avatar/1", strings.NewReader("png-bytes"), PutOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("png-bytes")) || info.ContentType != "image/png" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "sess/avatar/1", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatal("put is create-only")
	}

	got, body, err := store.Get(ctx, "sess/avatar/1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()
	if got.Key != "sess/avatar/1" || string(data) != "png-bytes" {
		t.Fatalf("roundtrip mismatch: %+v %q", got, data)
	}

	infos, err := store.List(ctx, "sess/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("list: %v %+v", err, infos)
	}

	existed, err := store.Delete(ctx, "sess/avatar/1")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "sess/avatar/1")
	if err != nil || existed {
		t.Fatalf("second delete must report absence: existed=%v err=%v", existed, err)
	}
}

func TestFilesystemStoreRoundtrip(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Put(ctx, "../escape", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatal("path traversal must be rejected")
	}

	if _, err := store.Put(ctx, "maps/bg.png", strings.NewReader("map-bytes"), PutOptions{ContentType: "image/png"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := store.Head(ctx, "maps/bg.png")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.ContentType != "image/png" {
		t.Fatalf("sidecar content type lost: %+v", info)
	}
	_, body, err := store.Get(ctx, "maps/bg.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()
	if string(data) != "map-bytes" {
		t.Fatalf("content mismatch: %q", data)
	}

	infos, err := store.List(ctx, "maps/")
	if err != nil || len(infos) != 1 || infos[0].Key != "maps/bg.png" {
		t.Fatalf("list: %v %+v", err, infos)
	}
}

func TestPutImageEnforcesCeiling(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	big := bytes.Repeat([]byte{0xff}, MaxAvatarBytes+1)
	_, err := PutImage(ctx, store, ImageAvatar, "a/1", bytes.NewReader(big), PutOptions{})
	var tooLarge ErrTooLarge
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if infos, _ := store.List(ctx, ""); len(infos) != 0 {
		t.Fatalf("oversized upload must not persist: %+v", infos)
	}

	ok := bytes.Repeat([]byte{0xff}, MaxAvatarBytes)
	info, err := PutImage(ctx, store, ImageAvatar, "a/2", bytes.NewReader(ok), PutOptions{})
	if err != nil {
		t.Fatalf("put at limit: %v", err)
	}
	if info.Size != int64(MaxAvatarBytes) {
		t.Fatalf("unexpected stored size %d", info.Size)
	}
}
