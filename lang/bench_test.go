package lang

import (
	"context"
	"strings"
	"testing"

	"github.com/ardnew/chtl/lang/lexer"
)

const benchSource = `
[Template] @Style Base { color: #333; margin: 0; }
[Custom] @Element Card {
    div { class: head; text { "title" } }
    div { class: body; }
}
[Template] @Var Theme { fg: navy; }
section {
    style { @Style Base; .wrap:hover { color: Theme(fg); } }
    @Element Card { delete div[1]; insert at bottom { hr; } }
    script { {{.wrap}}.addEventListener("click", () => {}); }
}
`

func benchInput(n int) []byte {
	return []byte(strings.Repeat(benchSource, n))
}

func BenchmarkTokenize(b *testing.B) {
	src := benchInput(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lexer.Tokenize("bench.chtl", src)
	}
}

func BenchmarkBuilder_BuildSource(b *testing.B) {
	ctx := context.Background()
	src := benchInput(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewBuilder(WithSink(&Diagnostics{})).BuildSource(ctx, "bench.chtl", src)
	}
}

func BenchmarkCompile(b *testing.B) {
	ctx := context.Background()
	src := benchInput(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compile(ctx, "bench.chtl", src)
	}
}

func BenchmarkCompile_Pretty(b *testing.B) {
	ctx := context.Background()
	src := benchInput(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compile(ctx, "bench.chtl", src, WithPrettyPrint(true))
	}
}
