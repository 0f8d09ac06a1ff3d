package render

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BlockKind is the layout role of a Block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockItem
)

// Block is one run of text from a plan, flattened for page layout.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
}

var spaces = regexp.MustCompile(`\s+`)

// ParseBlocks flattens the model's HTML into headings, paragraphs and list
// items in document order. Text outside those elements is kept as a single
// paragraph so nothing the model wrote is silently lost.
func ParseBlocks(html string) []Block {
	html = strings.TrimSpace(html)
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []Block{{Kind: BlockParagraph, Text: collapse(html)}}
	}

	var blocks []Block
	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if name == "p" && s.ParentsFiltered("li").Length() > 0 {
			return
		}
		if name == "li" {
			// nested lists are emitted as their own items
			s = s.Clone().Find("ul, ol").Remove().End()
		}
		text := collapse(s.Text())
		if text == "" {
			return
		}
		switch name {
		case "p":
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
		case "li":
			blocks = append(blocks, Block{Kind: BlockItem, Text: text})
		default:
			blocks = append(blocks, Block{Kind: BlockHeading, Level: int(name[1] - '0'), Text: text})
		}
	})

	if len(blocks) == 0 {
		if text := collapse(doc.Text()); text != "" {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
		}
	}
	return blocks
}

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
