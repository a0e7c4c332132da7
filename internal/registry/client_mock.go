package registry

import (
	"context"
	"fmt"
	"html"
	"time"

	"rfcheck/pkg/domain"
	platformstrings "rfcheck/pkg/platform/strings"
)

// MockClient answers deterministically without network access. Format-valid
// RFCs are active unless listed in NotFound.
type MockClient struct {
	Latency  time.Duration
	NotFound map[domain.RFC]bool
}

func NewMockClient(latency time.Duration, notFound []string) *MockClient {
	m := &MockClient{Latency: latency, NotFound: make(map[domain.RFC]bool, len(notFound))}
	for _, s := range platformstrings.DedupeBy(notFound, domain.NormalizeRFC) {
		m.NotFound[domain.RFC(s)] = true
	}
	return m
}

func (m *MockClient) Fetch(ctx context.Context, rfc domain.RFC) (*RawResponse, error) {
	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, NewProviderError(ErrorTimeout, providerID, "mock registry timed out", ctx.Err())
		}
	}

	var body string
	switch {
	case m.NotFound[rfc]:
		body = `<html><body><div class="resultado">El RFC no se encuentra registrado en el padrón de contribuyentes.</div></body></html>`
	case rfc.IsGeneric():
		body = `<html><body><div class="resultado">RFC válido, y susceptible de recibir facturas.</div></body></html>`
	default:
		body = fmt.Sprintf(`<html><body>
<div class="resultado">Registro activo</div>
<table>
<tr><td>Nombre, denominación o razón social:</td><td>CONTRIBUYENTE %s</td></tr>
<tr><td>Régimen fiscal:</td><td>%s</td></tr>
<tr><td>Fecha de inicio de operaciones:</td><td>2015-01-01</td></tr>
</table>
</body></html>`, html.EscapeString(rfc.String()), mockRegime(rfc))
	}

	return &RawResponse{
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

func mockRegime(rfc domain.RFC) string {
	if rfc.IsEntity() {
		return "General de Ley Personas Morales"
	}
	return "Personas Físicas con Actividades Empresariales y Profesionales"
}
