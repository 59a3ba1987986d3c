package session

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gridcalc/internal/engine"
	"gridcalc/internal/models"
	"gridcalc/internal/protocol"
	"gridcalc/internal/stats"
	"gridcalc/internal/types"
)

// Journal сохраняет обработанные запросы, может отсутствовать
type Journal interface {
	Save(ctx context.Context, entry *models.Entry) error
}

// Reply - ответ на одну строку запроса
type Reply struct {
	Quit    bool
	OK      bool
	Line    string // строка ответа целиком, пустая для BYE
	Result  string // результат или текст ошибки без приведения регистра
	Elapsed time.Duration
}

// Processor обрабатывает строки запросов. Общий для всех сессий и HTTP API.
type Processor struct {
	engine  *engine.Engine
	stats   *stats.Tracker
	journal Journal
}

func NewProcessor(eng *engine.Engine, tracker *stats.Tracker, journal Journal) *Processor {
	return &Processor{engine: eng, stats: tracker, journal: journal}
}

func (p *Processor) Stats() *stats.Tracker {
	return p.stats
}

func (p *Processor) Engine() *engine.Engine {
	return p.engine
}

// Process разбирает и выполняет одну строку. client идентифицирует источник в логах и журнале.
func (p *Processor) Process(ctx context.Context, client Client, line string) Reply {
	line = strings.TrimSpace(line)
	start := time.Now()

	req, err := protocol.Parse(line)
	if err != nil {
		log.Printf("Error : Failed to parse request (%s)", err)
		return p.fail(ctx, client, line, start, err)
	}

	if req.Kind == protocol.QuitRequest {
		return Reply{Quit: true}
	}

	result, err := p.execute(ctx, req)
	if err != nil {
		log.Printf("Error : %s", err)
		return p.fail(ctx, client, line, start, err)
	}

	elapsed := time.Since(start)
	p.stats.Record(elapsed)

	reply := Reply{
		OK:      true,
		Line:    okLine(elapsed.Milliseconds(), result),
		Result:  result,
		Elapsed: elapsed,
	}
	p.save(ctx, client, line, models.StatusCompleted, reply)
	return reply
}

func (p *Processor) execute(ctx context.Context, req *protocol.Request) (string, error) {
	switch req.Kind {
	case protocol.StatRequest:
		return p.stat(ctx, req.Stat)
	case protocol.ComputationRequest:
		res, err := p.engine.Compute(ctx, req.Computation)
		if err != nil {
			return "", err
		}
		return FormatResult(res), nil
	}
	return "", fmt.Errorf("unknown request kind %q", req.Kind)
}

func (p *Processor) stat(ctx context.Context, kind types.StatKind) (string, error) {
	switch kind {
	case types.StatRequestCount:
		n, err := p.stats.RequestCount(ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(n, 10), nil
	case types.StatAverageTime:
		avg, err := p.stats.AverageTimeMillis(ctx)
		if err != nil {
			return "", err
		}
		return formatSeconds(avg), nil
	case types.StatMaxTime:
		max, err := p.stats.MaxTimeMillis(ctx)
		if err != nil {
			return "", err
		}
		return formatSeconds(float64(max)), nil
	}
	return "", fmt.Errorf("unknown stat kind %q", kind)
}

func (p *Processor) fail(ctx context.Context, client Client, line string, start time.Time, err error) Reply {
	reply := Reply{
		Line:    errLine(err.Error()),
		Result:  err.Error(),
		Elapsed: time.Since(start),
	}
	p.save(ctx, client, line, models.StatusError, reply)
	return reply
}

func (p *Processor) save(ctx context.Context, client Client, line, status string, reply Reply) {
	if p.journal == nil {
		return
	}
	entry := &models.Entry{
		SessionID: client.SessionID,
		Request:   line,
		Status:    status,
		Result:    reply.Result,
		ElapsedMs: reply.Elapsed.Milliseconds(),
	}
	if err := p.journal.Save(ctx, entry); err != nil {
		log.Printf("Error : не удалось сохранить запрос в журнал: %v", err)
	}
}
