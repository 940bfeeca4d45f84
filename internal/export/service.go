package export

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/observability/metrics"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ContentTypePDF = "application/pdf"
	formatPDF      = "pdf"
)

// File is a rendered export ready to stream.
type File struct {
	Name        string
	ContentType string
	Reference   string
	Body        []byte
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Plans    ppmpdomain.Service
	Renderer Renderer         `optional:"true"`
	Clock    clock.Clock      `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	plans    ppmpdomain.Service
	renderer Renderer
	clock    clock.Clock
	metrics  *metrics.Metrics
}

func NewService(p Params) *Service {
	renderer := p.Renderer
	if renderer == nil {
		renderer = NewRenderer()
	}
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		log:      p.Log.Named("export.service"),
		plans:    p.Plans,
		renderer: renderer,
		clock:    c,
		metrics:  p.Metrics,
	}
}

// PlanPDF renders a plan the actor may view.
func (s *Service) PlanPDF(ctx context.Context, actor authorization.Actor, planID snowflake.ID) (*File, error) {
	detail, err := s.plans.Get(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reference := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	body, err := s.renderer.Render(ctx, newDocument(detail, reference, now.Format("2006-01-02 15:04 MST")))
	if err != nil {
		s.log.Error("failed to render ppmp pdf", zap.String("ppmp_id", planID.String()), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordExport(ctx, formatPDF)
	s.log.Info("ppmp exported",
		zap.String("ppmp_id", planID.String()),
		zap.String("reference", reference),
		zap.Int("bytes", len(body)),
	)
	return &File{
		Name:        Filename(detail.Title, detail.FiscalYear),
		ContentType: ContentTypePDF,
		Reference:   reference,
		Body:        body,
	}, nil
}
