package resource

import (
	"sort"
	"strconv"
	"time"

	"github.com/Lyadalachanchu/voice4evs/pkg/model"
)

type PowerLimitResource struct {
	DeviceID    string             `json:"deviceId"`
	DefaultKW   *float64           `json:"defaultKw,omitempty"`
	ConnectorKW map[string]float64 `json:"connectorKw,omitempty"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty"`
}

type PowerLimitListResource struct {
	Members []*PowerLimitResource `json:"members"`
}

func NewPowerLimit(m *model.PowerLimit) (out *PowerLimitResource) {
	out = &PowerLimitResource{
		DeviceID: m.DeviceID,
	}

	if m.HasDefault {
		out.DefaultKW = &m.DefaultKW
	}
	if len(m.ConnectorKW) > 0 {
		out.ConnectorKW = make(map[string]float64, len(m.ConnectorKW))
		for id, kw := range m.ConnectorKW {
			out.ConnectorKW[strconv.Itoa(id)] = kw
		}
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewPowerLimitList(m map[string]model.PowerLimit) (out *PowerLimitListResource) {
	out = &PowerLimitListResource{
		Members: make([]*PowerLimitResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewPowerLimit(&elem))
	}

	// Default sort by device id
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].DeviceID < out.Members[j].DeviceID
	})

	return // out
}
