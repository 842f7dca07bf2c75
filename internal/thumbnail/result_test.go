package thumbnail

import (
	"encoding/json"
	"testing"
)

func TestResultJSONUsesNullForMissingJob(t *testing.T) {
	payload, err := json.Marshal(notNeeded("https://cdn.example.com/a.png"))
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	want := `{"thumbExists":false,"webUrl":"https://cdn.example.com/a.png","jobId":null,"aliasStem":null,"state":"not_needed"}`
	if string(payload) != want {
		t.Fatalf("JSON 错误:\n got %s\nwant %s", payload, want)
	}
}

func TestResultJSONForReadyThumbnail(t *testing.T) {
	result := Result{State: JobReady, WebURL: "/img/thumbs/a.webp", JobID: "abc", AliasStem: "a"}
	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	want := `{"thumbExists":true,"webUrl":"/img/thumbs/a.webp","jobId":"abc","aliasStem":"a","state":"ready"}`
	if string(payload) != want {
		t.Fatalf("JSON 错误:\n got %s\nwant %s", payload, want)
	}
}
