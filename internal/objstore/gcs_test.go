package objstore

import "testing"

func TestSplitURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{name: "simple", uri: "gs://b/file.png", wantBucket: "b", wantObject: "file.png"},
		{name: "nested path", uri: "gs://b/a/c/file.png", wantBucket: "b", wantObject: "a/c/file.png"},
		{name: "missing scheme", uri: "b/file.png", wantErr: true},
		{name: "no object path", uri: "gs://b", wantErr: true},
		{name: "empty object path", uri: "gs://b/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := splitURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("splitURI(%q) = (%q, %q), want (%q, %q)",
					tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/folder/file.png", "file.png"},
		{"gs://bucket/file.jpg", "file.jpg"},
		{"gs://bucket", "bucket"},
	}

	for _, tt := range tests {
		if got := FilenameFromURI(tt.uri); got != tt.want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
