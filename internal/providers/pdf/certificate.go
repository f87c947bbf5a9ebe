package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type CertificateData struct {
	PolicyNumber string
	ProductName  string
	HolderName   string
	HolderPhone  string
	Premium      string
	IssueDate    string

	Details []CertificateDetail
}

type CertificateDetail struct {
	Label string
	Value string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateCertificate(ctx context.Context, data CertificateData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Certificate of Insurance", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(24,
		col.New(6).Add(
			text.New("Policy number: "+data.PolicyNumber, props.Text{Top: 0}),
			text.New("Product: "+data.ProductName, props.Text{Top: 5}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Policyholder", props.Text{Style: fontstyle.Bold}),
			text.New(data.HolderName, props.Text{Top: 5}),
			text.New(data.HolderPhone, props.Text{Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Coverage details", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	for _, d := range data.Details {
		m.AddRow(7,
			text.NewCol(6, d.Label, props.Text{Style: fontstyle.Bold}),
			text.NewCol(6, d.Value, props.Text{Align: align.Right}),
		)
	}

	m.AddRow(4, line.NewCol(12))

	m.AddRow(8,
		text.NewCol(6, "Premium paid", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, data.Premium, props.Text{Align: align.Right, Style: fontstyle.Bold}),
	)

	m.AddRow(16,
		text.NewCol(12, "This certificate confirms that the policy above is in force. Keep it with your records.", props.Text{
			Size: 8,
			Top:  8,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := buf.Write(doc.GetBytes()); err != nil {
		return nil, err
	}
	return io.Reader(&buf), nil
}
