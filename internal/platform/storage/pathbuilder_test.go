package storage

import "testing"

func TestBuildProfileImagePath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProfileImage, PathParams{
		CoachID:  "coach123",
		UploadID: "upload789",
		FileName: "portrait.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "coaches/coach123/profile/upload789/portrait.png"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildQualificationPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeQualification, PathParams{
		CoachID:  "coach123",
		UploadID: "upload456",
		FileName: "certificate.pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "coaches/coach123/qualifications/upload456/certificate.pdf"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeProfileImage, PathParams{
		CoachID:  "../bad",
		UploadID: "upload",
		FileName: "file.png",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
}
