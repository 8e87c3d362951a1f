package navigation

import "testing"

func TestExtractParams(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    map[string]string
		ok      bool
	}{
		{"/blog/:id", "/blog/42", map[string]string{"id": "42"}, true},
		{"/blog/:id", "/blog/42/comments", nil, false},
		{"/blog/:id", "/blog/", nil, false},
		{"/u/:user/p/:post", "/u/ana/p/7", map[string]string{"user": "ana", "post": "7"}, true},
		{"/index.html", "/index.html", map[string]string{}, true},
		{"/index.html", "/indexxhtml", nil, false},
		{"/a", "/a/", nil, false},
	}
	for _, tc := range cases {
		got, ok := ExtractParams(tc.pattern, tc.path)
		if ok != tc.ok {
			t.Fatalf("%s vs %s: ok=%v want=%v", tc.pattern, tc.path, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got == nil {
			t.Fatalf("%s vs %s: nil params on match", tc.pattern, tc.path)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s vs %s: params=%v want=%v", tc.pattern, tc.path, got, tc.want)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("%s vs %s: %s=%q want=%q", tc.pattern, tc.path, k, got[k], v)
			}
		}
	}
}

func TestIsParametrized(t *testing.T) {
	if IsParametrized("/about") {
		t.Fatalf("literal pattern reported as parametrized")
	}
	if !IsParametrized("/blog/:id") {
		t.Fatalf("param pattern not detected")
	}
	if IsParametrized("/odd/:") {
		t.Fatalf("bare colon should be literal")
	}
}
