package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeLatin(testingHandle *testing.T) {
	got := Tokenize("Hello, World! foo_bar 123")
	want := []string{"hello", "world", "foo", "bar", "123"}
	if !reflect.DeepEqual(got, want) {
		testingHandle.Fatalf("got %#v want %#v", got, want)
	}
}

func TestTokenizeCJKPerCharacter(testingHandle *testing.T) {
	got := Tokenize("你好世界")
	want := []string{"你", "好", "世", "界"}
	if !reflect.DeepEqual(got, want) {
		testingHandle.Fatalf("got %#v want %#v", got, want)
	}
}

func TestTokenizeMixedScript(testingHandle *testing.T) {
	got := Tokenize("我喜欢Golang编程")
	want := []string{"我", "喜", "欢", "golang", "编", "程"}
	if !reflect.DeepEqual(got, want) {
		testingHandle.Fatalf("got %#v want %#v", got, want)
	}
}

func TestTokenizeEmpty(testingHandle *testing.T) {
	got := Tokenize("")
	if len(got) != 0 {
		testingHandle.Fatalf("expected no tokens, got %#v", got)
	}
}

func TestTokenizeOnlyPunctuation(testingHandle *testing.T) {
	got := Tokenize("... --- !!!")
	if len(got) != 0 {
		testingHandle.Fatalf("expected no tokens, got %#v", got)
	}
}

func TestIsCJKRanges(testingHandle *testing.T) {
	cjkSamples := []rune{0x4E2D, 0x3042, 0x30A2, 0xAC00, 0x3001}
	for _, r := range cjkSamples {
		if !IsCJK(r) {
			testingHandle.Fatalf("expected %U to be classified as CJK", r)
		}
	}
	if IsCJK('a') {
		testingHandle.Fatalf("'a' must not be classified as CJK")
	}
}
