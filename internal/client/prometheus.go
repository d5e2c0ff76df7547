// Prometheus HTTP API 조회 클라이언트
//
// 설정:
//   - PROMETHEUS_URL: 예) http://prometheus.monitoring.svc:9090
//
// 서비스 health 검증에서 에러율/지연 같은 스칼라 값만 가져온다.

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"
	"github.com/sirupsen/logrus"
)

type PrometheusClient struct {
	api promv1.API
}

func NewPrometheusClient(address string) (*PrometheusClient, error) {
	if address == "" {
		return nil, fmt.Errorf("missing PROMETHEUS_URL")
	}
	c, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &PrometheusClient{api: promv1.NewAPI(c)}, nil
}

// QueryScalar - 즉시 조회 결과의 첫 번째 값을 float64로 반환
// 결과가 비어 있으면 0을 반환한다.
func (c *PrometheusClient) QueryScalar(ctx context.Context, query string, at time.Time) (float64, error) {
	value, warnings, err := c.api.Query(ctx, query, at)
	if err != nil {
		return 0, err
	}
	for _, w := range warnings {
		logrus.Warnf("Prometheus query warning: %s", w)
	}

	switch v := value.(type) {
	case *prommodel.Scalar:
		return float64(v.Value), nil
	case prommodel.Vector:
		if len(v) == 0 {
			return 0, nil
		}
		return float64(v[0].Value), nil
	default:
		return 0, fmt.Errorf("unexpected result type %s", value.Type())
	}
}
