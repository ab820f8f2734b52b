package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"events":[]}`)

	if !ValidateSignature(secret, body, sign(secret, body)) {
		t.Fatalf("valid signature rejected")
	}
	if ValidateSignature(secret, []byte(`{"events":[{}]}`), sign(secret, body)) {
		t.Fatalf("tampered body accepted")
	}
	if ValidateSignature(secret, body, "") {
		t.Fatalf("empty signature accepted")
	}
	if ValidateSignature(secret, body, "not base64 !!!") {
		t.Fatalf("malformed signature accepted")
	}
	if ValidateSignature("", body, sign(secret, body)) {
		t.Fatalf("empty secret accepted")
	}
}

func TestParseWebhookVariants(t *testing.T) {
	body := []byte(`{
		"destination": "Ubotdest",
		"events": [
			{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":"Hello"}},
			{"type":"message","replyToken":"rt-2","source":{"type":"user","userId":"U2"},"message":{"id":"m2","type":"sticker"}},
			{"type":"message","replyToken":"rt-3","source":{"type":"user","userId":"U3"},"message":{"id":"m3","type":"video"}},
			{"type":"follow","replyToken":"rt-4","source":{"type":"user","userId":"U4"}}
		]
	}`)

	hook, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if len(hook.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(hook.Events))
	}

	text := hook.Events[0]
	if !text.IsMessage() || text.Message.Kind() != KindText || text.Message.Text != "Hello" {
		t.Fatalf("text event parsed wrong: %+v", text)
	}
	if hook.Events[1].Message.Kind() != KindSticker {
		t.Fatalf("sticker event parsed wrong")
	}
	other := hook.Events[2]
	if other.Message.Kind() != KindOther || other.Message.Type != "video" {
		t.Fatalf("unknown type must keep raw name, got %+v", other.Message)
	}
	if hook.Events[3].IsMessage() {
		t.Fatalf("follow event must not count as a message")
	}
}

func TestParseWebhookRejectsGarbage(t *testing.T) {
	if _, err := ParseWebhook([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReplyPostsExpectedJSON(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody replyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode reply request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient("channel-token", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Reply(context.Background(), "rt-1", "Hi there"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if gotPath != "/v2/bot/message/reply" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer channel-token" {
		t.Fatalf("unexpected authorization: %s", gotAuth)
	}
	if gotBody.ReplyToken != "rt-1" {
		t.Fatalf("unexpected reply token: %s", gotBody.ReplyToken)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Type != "text" || gotBody.Messages[0].Text != "Hi there" {
		t.Fatalf("unexpected messages: %+v", gotBody.Messages)
	}
}

func TestPushPostsExpectedJSON(t *testing.T) {
	var gotBody pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/push" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode push request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient("channel-token", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Push(context.Background(), "U1", "ping"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotBody.To != "U1" || len(gotBody.Messages) != 1 || gotBody.Messages[0].Text != "ping" {
		t.Fatalf("unexpected push body: %+v", gotBody)
	}
}

func TestReplySurfacesHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	defer srv.Close()

	client, err := NewClient("channel-token", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Reply(context.Background(), "rt-used", "late")
	if err == nil {
		t.Fatalf("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", statusErr.StatusCode)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
