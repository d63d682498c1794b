package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilterMatchesKeyword(t *testing.T) {
	f := New()
	f.Add("赌博")
	f.Add("badword")

	if got := f.Filter("我们聊聊天气"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
	if got := f.Filter("一起去赌博吧"); got != "赌博" {
		t.Fatalf("expected 赌博, got %q", got)
	}
	// 大小写不敏感
	if got := f.Filter("this is a BadWord here"); got != "badword" {
		t.Fatalf("expected badword, got %q", got)
	}
}

// 敏感词中间插入干扰字符也应命中：匹配链允许跳过不在链上的字符。
func TestFilterSkipsNoiseCharacters(t *testing.T) {
	f := New()
	f.Add("赌博")

	if got := f.Filter("一起去赌 博吧"); got != "赌博" {
		t.Fatalf("expected 赌博 despite noise, got %q", got)
	}
	if got := f.Filter("赌*博"); got != "赌博" {
		t.Fatalf("expected 赌博 despite asterisk, got %q", got)
	}
}

func TestFilterEmptyAndBlankKeywordsIgnored(t *testing.T) {
	f := New()
	f.Add("")
	f.Add("   ")

	if got := f.Filter("任意文本"); got != "" {
		t.Fatalf("expected no match from blank keywords, got %q", got)
	}
}

func TestParseLoadsKeywordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords")
	if err := os.WriteFile(path, []byte("赌博\nbadword\n\n 诈骗 \n"), 0644); err != nil {
		t.Fatalf("write keywords: %v", err)
	}

	f := New()
	if err := f.Parse(path); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := f.Filter("小心诈骗电话"); got != "诈骗" {
		t.Fatalf("expected 诈骗, got %q", got)
	}
}

func TestParseMissingFile(t *testing.T) {
	f := New()
	if err := f.Parse(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
