package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// healthPath — эндпоинт, по которому проверяется, что порт обслуживает приложение.
const healthPath = "/api/events"

// PortDiscovery ищет локальный порт, на котором отвечает API приложения.
type PortDiscovery struct {
	log     *slog.Logger
	client  *http.Client
	host    string
	ports   []int
	timeout time.Duration
}

// NewPortDiscovery создаёт поиск портов. timeout — лимит на одну пробу.
func NewPortDiscovery(log *slog.Logger, client *http.Client, host string, ports []int, timeout time.Duration) *PortDiscovery {
	return &PortDiscovery{
		log:     log,
		client:  client,
		host:    host,
		ports:   ports,
		timeout: timeout,
	}
}

// Ports возвращает список кандидатов в порядке проверки.
func (d *PortDiscovery) Ports() []int {
	return d.ports
}

// Origin возвращает базовый адрес для порта.
func (d *PortDiscovery) Origin(port int) string {
	return "http://" + d.host + ":" + strconv.Itoa(port)
}

// Discover делает один проход по списку и возвращает первый порт,
// ответивший 2xx за отведённое время.
func (d *PortDiscovery) Discover(ctx context.Context) (int, bool) {
	op := "PortDiscovery.Discover()"
	log := d.log.With(slog.String("op", op))

	for _, port := range d.ports {
		if ctx.Err() != nil {
			return 0, false
		}
		if err := d.probe(ctx, port); err != nil {
			log.Debug("port probe failed", slog.Int("port", port), slog.String("error", err.Error()))
			continue
		}
		log.Debug("api port found", slog.Int("port", port))
		return port, true
	}

	log.Warn("no api port answered", slog.Any("ports", d.ports))
	return 0, false
}

func (d *PortDiscovery) probe(ctx context.Context, port int) error {
	pctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, d.Origin(port)+healthPath, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
