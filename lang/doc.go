// Package lang compiles CHTL, a brace-structured markup language, into a
// single HTML document with its styles and scripts.
//
// # Pipeline
//
// Compilation runs in three stages, each reporting problems to a shared
// [Sink] rather than failing:
//
//  1. The lexer (package lang/lexer) turns source text into tokens. Every
//     token keeps the whitespace that preceded it, so script bodies and
//     origin blocks can be captured verbatim.
//  2. The [Builder] parses tokens into a [Node] tree and registers every
//     template, custom, origin, and configuration declaration in a
//     [SymbolMap]. Imports are resolved while building.
//  3. The [Generator] walks the tree, expands references through a
//     [Resolver], runs selector automation, and assembles a [Document].
//
// [Compile] runs the whole pipeline and returns a [Result].
//
// # Example
//
//	[Template] @Style Card {
//	    padding: 8px;
//	    border: 1px solid #ccc;
//	}
//
//	div {
//	    style {
//	        @Style Card;
//	        .card:hover { color: red; }
//	    }
//	    text { "Hello" }
//	}
//
// The div receives class "card" from the class selector in its style block,
// the template's declarations as its inline style, and the hover rule is
// moved to the global stylesheet.
//
// # Configuration
//
// A [Configuration] block sets output options by name. Quoted values are
// strings; other values that are not plain literals are evaluated as
// expr-lang expressions with the built-ins listed by [BuiltinEnvKeys] and
// every option assigned before them:
//
//	[Configuration] {
//	    INDEX_INITIAL_COUNT = 1;
//	    DEBUG_MODE = env("CHTL_DEBUG") == "1";
//	    TITLE = "Docs: " + path.base(cwd());
//	}
package lang
