package providers

import (
	"context"
	"strings"
	"time"
)

const sampleOCRText = "This is sample text extracted from the image.\nIt contains multiple lines of text.\nOCR technology can recognize printed text."

func newOCRProvider(sim simulator) *ActionSet {
	screenshotPath := func(p Params, prefix string) any {
		if !p.Bool("save_screenshot", false) {
			return nil
		}
		return p.String("screenshot_path", sim.stamp(prefix, ".png"))
	}

	return NewActionSet("OCR", map[string]ActionFunc{
		"extract_text": func(ctx context.Context, p Params) (map[string]any, error) {
			image, err := p.Require("image_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1.5); err != nil {
				return nil, err
			}
			return map[string]any{
				"extracted":  true,
				"image_path": image,
				"language":   p.String("language", "eng"),
				"text":       sampleOCRText,
				"characters": len(sampleOCRText),
				"timestamp":  sim.now().Format(time.RFC3339),
			}, nil
		},
		"extract_from_screen": func(ctx context.Context, p Params) (map[string]any, error) {
			if err := sim.wait(ctx, 2); err != nil {
				return nil, err
			}
			text := "Text extracted from the current screen."
			return map[string]any{
				"extracted":        true,
				"language":         p.String("language", "eng"),
				"text":             text,
				"characters":       len(text),
				"screenshot_saved": p.Bool("save_screenshot", false),
				"screenshot_path":  screenshotPath(p, "ocr_screenshot"),
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"extract_from_region": func(ctx context.Context, p Params) (map[string]any, error) {
			region, err := p.Region("region", []int{0, 0, 500, 500})
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 1); err != nil {
				return nil, err
			}
			text := "Text extracted from the selected region."
			return map[string]any{
				"extracted":        true,
				"region":           region,
				"language":         p.String("language", "eng"),
				"text":             text,
				"characters":       len(text),
				"screenshot_saved": p.Bool("save_screenshot", false),
				"screenshot_path":  screenshotPath(p, "ocr_region"),
				"timestamp":        sim.now().Format(time.RFC3339),
			}, nil
		},
		"extract_tables": func(ctx context.Context, p Params) (map[string]any, error) {
			image, err := p.Require("image_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 2); err != nil {
				return nil, err
			}
			header := []string{"Name", "Age", "Department"}
			rows := [][]string{
				{"John Smith", "35", "Engineering"},
				{"Jane Doe", "28", "Marketing"},
				{"Bob Johnson", "42", "Finance"},
			}
			format := strings.ToLower(p.String("output_format", "json"))
			var data any
			switch format {
			case "csv":
				lines := []string{strings.Join(header, ",")}
				for _, r := range rows {
					lines = append(lines, strings.Join(r, ","))
				}
				data = strings.Join(lines, "\n")
			case "html":
				var b strings.Builder
				b.WriteString("<table><tr><th>" + strings.Join(header, "</th><th>") + "</th></tr>")
				for _, r := range rows {
					b.WriteString("<tr><td>" + strings.Join(r, "</td><td>") + "</td></tr>")
				}
				b.WriteString("</table>")
				data = b.String()
			default:
				records := make([]any, 0, len(rows))
				for _, r := range rows {
					rec := map[string]any{}
					for i, h := range header {
						rec[h] = r[i]
					}
					records = append(records, rec)
				}
				data = records
			}
			return map[string]any{
				"extracted":     true,
				"image_path":    image,
				"output_format": format,
				"tables_found":  1,
				"data":          data,
				"timestamp":     sim.now().Format(time.RFC3339),
			}, nil
		},
		"recognize_document": func(ctx context.Context, p Params) (map[string]any, error) {
			image, err := p.Require("image_path")
			if err != nil {
				return nil, err
			}
			if err := sim.wait(ctx, 2); err != nil {
				return nil, err
			}
			docType := p.String("document_type", "generic")
			return map[string]any{
				"recognized":    true,
				"image_path":    image,
				"document_type": docType,
				"data":          documentFields(docType),
				"confidence":    0.92,
				"timestamp":     sim.now().Format(time.RFC3339),
			}, nil
		},
	})
}

func documentFields(docType string) map[string]any {
	switch docType {
	case "invoice":
		return map[string]any{
			"invoice_number": "INV-12345",
			"date":           "2023-04-15",
			"due_date":       "2023-05-15",
			"vendor":         "ABC Company",
			"customer":       "XYZ Corporation",
			"items": []any{
				map[string]any{"description": "Product A", "quantity": 2, "unit_price": 100.00, "total": 200.00},
				map[string]any{"description": "Service B", "quantity": 5, "unit_price": 50.00, "total": 250.00},
			},
			"subtotal": 450.00,
			"tax":      36.00,
			"total":    486.00,
		}
	case "receipt":
		return map[string]any{
			"merchant": "Grocery Store",
			"date":     "2023-04-20",
			"time":     "14:30",
			"items": []any{
				map[string]any{"description": "Milk", "quantity": 1, "price": 3.99},
				map[string]any{"description": "Bread", "quantity": 2, "price": 4.98},
				map[string]any{"description": "Eggs", "quantity": 1, "price": 2.49},
			},
			"subtotal":       11.46,
			"tax":            0.92,
			"total":          12.38,
			"payment_method": "Credit Card",
		}
	}
	return map[string]any{
		"text":     "This is the full text extracted from the document.\nIt contains multiple lines and paragraphs of text.",
		"pages":    1,
		"language": "English",
	}
}
