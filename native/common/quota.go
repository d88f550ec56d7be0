package common

import (
	"errors"
	"math"
)

var (
	ErrQuotaRequestsExceeded = errors.New("quota requests exceeded")
	ErrQuotaFlowCapExceeded  = errors.New("quota flow cap exceeded")
	ErrQuotaCounterOverflow  = errors.New("quota counter overflow")
)

// QuotaNow captures the current usage counters for one caller within an
// epoch.
type QuotaNow struct {
	ReqCount uint32
	FlowUsed uint64
	EpochID  uint64
}

// Quota bounds how often a caller may hit a surface and how much public flow
// it may move per epoch. Zero limits disable the corresponding check.
type Quota struct {
	MaxRequestsPerEpoch uint32
	MaxFlowPerEpoch     uint64
	EpochSeconds        uint32
}

// CheckQuota verifies the additional request and flow fit within the quota.
// The returned counters reflect the update when the quota holds; on denial
// the previous counters are returned unchanged.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addReq uint32, addFlow uint64) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}

	if addReq > 0 {
		if next.ReqCount > math.MaxUint32-addReq {
			return prev, ErrQuotaCounterOverflow
		}
		next.ReqCount += addReq
	}
	if q.MaxRequestsPerEpoch > 0 && next.ReqCount > q.MaxRequestsPerEpoch {
		return prev, ErrQuotaRequestsExceeded
	}

	if addFlow > 0 {
		if next.FlowUsed > math.MaxUint64-addFlow {
			return prev, ErrQuotaCounterOverflow
		}
		next.FlowUsed += addFlow
	}
	if q.MaxFlowPerEpoch > 0 && next.FlowUsed > q.MaxFlowPerEpoch {
		return prev, ErrQuotaFlowCapExceeded
	}

	return next, nil
}
