package gcp

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
)

func TestParseSpeechResponseJoinsAlternatives(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " Join us Friday ", Confidence: 0.9}}},
			nil,
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "at the pier.", Confidence: 0.7}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "   "}}},
		},
	}
	out := parseSpeechResponse(resp)
	if out.PrimaryText != "Join us Friday at the pier." {
		t.Fatalf("transcript: got=%q", out.PrimaryText)
	}
	if out.Confidence < 0.79 || out.Confidence > 0.81 {
		t.Fatalf("confidence: want~0.8 got=%v", out.Confidence)
	}
	if parseSpeechResponse(nil).PrimaryText != "" {
		t.Fatalf("nil response must give empty transcript")
	}
}

func TestInferSpeechEncoding(t *testing.T) {
	cases := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"audio/wav":  speechpb.RecognitionConfig_LINEAR16,
		"audio/flac": speechpb.RecognitionConfig_FLAC,
		"audio/mpeg": speechpb.RecognitionConfig_MP3,
		"":           speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
	}
	for in, want := range cases {
		if got := inferSpeechEncoding(in); got != want {
			t.Fatalf("inferSpeechEncoding(%q): want=%v got=%v", in, want, got)
		}
	}
	if mimeForPath("/tmp/audio-1.wav") != "audio/wav" {
		t.Fatalf("wav path must map to audio/wav")
	}
}

func TestParseOCRResponse(t *testing.T) {
	resp := &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{
			FullTextAnnotation: &visionpb.TextAnnotation{
				Text:  "JAZZ\nNIGHT  FRI 9PM",
				Pages: []*visionpb.Page{{Blocks: []*visionpb.Block{{Confidence: 0.5}, {Confidence: 1}}}},
			},
		}},
	}
	out, err := parseOCRResponse(resp, "image/jpeg")
	if err != nil {
		t.Fatalf("parseOCRResponse: %v", err)
	}
	if out.PrimaryText != "JAZZ NIGHT FRI 9PM" {
		t.Fatalf("text: got=%q", out.PrimaryText)
	}
	if out.Confidence != 0.75 {
		t.Fatalf("confidence: want=0.75 got=%v", out.Confidence)
	}

	_, err = parseOCRResponse(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{Error: &statuspb.Status{Message: "bad image data"}}},
	}, "image/jpeg")
	if err == nil {
		t.Fatalf("expected annotate error")
	}
}

func TestContentTypeForKey(t *testing.T) {
	if contentTypeForKey("flyers/2024/abc.PNG") != "image/png" {
		t.Fatalf("png")
	}
	if contentTypeForKey("flyers/abc.jpg?x=1") != "image/jpeg" {
		t.Fatalf("jpg with query")
	}
	if ExtForMime("image/webp") != ".webp" || ExtForMime("") != ".jpg" {
		t.Fatalf("ExtForMime mapping")
	}
}
