package lang_test

import (
	"context"
	"fmt"

	"github.com/ardnew/chtl/lang"
)

func Example() {
	src := `
[Template] @Style Card {
    padding: 8px;
    border: 1px solid gray;
}

div {
    style {
        @Style Card;
        .card:hover { color: red; }
    }
    text { "Hello" }
}
`
	res := lang.Compile(context.Background(), "card.chtl", []byte(src))

	fmt.Println(res.Document.Body())
	fmt.Println(res.Document.CSS())
	// Output:
	// <div class="card" style="padding: 8px; border: 1px solid gray;">Hello</div>
	// .card:hover { color: red; }
}

func ExampleCompile_diagnostics() {
	res := lang.Compile(context.Background(), "page.chtl", []byte(`div { @Element Missing; }`))

	fmt.Println(res.Document.Body())
	fmt.Println(res.Diagnostics.Count(lang.ResolutionError))
	// Output:
	// <div></div>
	// 1
}

func ExampleSession() {
	ctx := context.Background()
	s := lang.NewSession()

	s.Eval(ctx, `[Custom] @Element Badge { span { text { "new" } } }`)
	res := s.Eval(ctx, `p { @Element Badge { insert at top { b { } } } }`)

	fmt.Println(res.Document.Body())
	// Output:
	// <p><b></b><span>new</span></p>
}

func ExampleMinify() {
	fmt.Println(lang.Minify("<ul>\n  <li>one   two</li>\n</ul>"))
	// Output:
	// <ul><li>one two</li></ul>
}
