package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ledgerid/digest"
	"ledgerid/estimator"
	"ledgerid/holderid"
	"ledgerid/logger"
	"ledgerid/models"
	"ledgerid/oracle"
	"ledgerid/repository"
)

// Handler contains the HTTP handlers for the identifier and height endpoints
type Handler struct {
	Estimator *estimator.Estimator
	Blocks    repository.BlockRepositoryInterface
}

// NewHandler creates and returns a new Handler instance. blocks may be nil
// when heights are served by a remote gateway.
func NewHandler(e *estimator.Estimator, blocks repository.BlockRepositoryInterface) *Handler {
	return &Handler{Estimator: e, Blocks: blocks}
}

// GetDigest decodes a digest string into its numeric id and CID
func (h *Handler) GetDigest(w http.ResponseWriter, r *http.Request) {
	s := mux.Vars(r)["digest"]

	n, err := digest.DecodeDigest(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var raw [digest.Size]byte
	n.FillBytes(raw[:])
	c, err := digest.ToCID(raw)
	if err != nil {
		logger.Logger.Error("Failed to build cid", zap.String("digest", s), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"digest":     s[:digest.EncodedLength],
		"numeric_id": n.String(),
		"cid":        c.String(),
	})
}

// EncodeDigest handles POST requests carrying a hex encoded 32 byte digest
func (h *Handler) EncodeDigest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hex string `json:"hex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request payload"))
		return
	}

	b, err := hex.DecodeString(req.Hex)
	if err != nil || len(b) != digest.Size {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: want %d hex encoded bytes", digest.ErrMalformedIdentifier, digest.Size))
		return
	}

	var raw [digest.Size]byte
	copy(raw[:], b)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"digest":     digest.EncodeDigest(raw),
		"numeric_id": new(big.Int).SetBytes(b).String(),
	})
}

// DeriveHolderID binds a numeric id to a holder
func (h *Handler) DeriveHolderID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Holder string `json:"holder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request payload"))
		return
	}

	id, ok := new(big.Int).SetString(req.ID, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("id %q is not a decimal integer", req.ID))
		return
	}

	derived, err := holderid.Derive(id, req.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"derived_id":  derived.String(),
		"fingerprint": holderid.Fingerprint(req.Holder),
	})
}

// RecoverHolderID splits a derived id into the original id and fingerprint
func (h *Handler) RecoverHolderID(w http.ResponseWriter, r *http.Request) {
	derived, ok := parseDerived(w, r)
	if !ok {
		return
	}

	id, f, err := holderid.Recover(derived)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id.String(),
		"fingerprint": f,
	})
}

// VerifyHolderID checks a derived id against the holder query parameter
func (h *Handler) VerifyHolderID(w http.ResponseWriter, r *http.Request) {
	derived, ok := parseDerived(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": holderid.Verify(derived, r.URL.Query().Get("holder")),
	})
}

// EstimateHeight answers from the calibration table without touching the ledger
func (h *Handler) EstimateHeight(w http.ResponseWriter, r *http.Request) {
	ts, err := queryInt(r, "timestamp")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tip, err := queryInt(r, "tip")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"height": h.Estimator.EstimateHeight(ts, tip),
	})
}

// GetHeight refines the height for a timestamp against the live ledger
func (h *Handler) GetHeight(w http.ResponseWriter, r *http.Request) {
	ts, err := queryInt(r, "timestamp")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	height, err := h.Estimator.HeightAt(r.Context(), ts)
	if err != nil {
		h.heightError(w, "Failed to fetch height", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": ts,
		"height":    height,
	})
}

// SearchHeight binary searches [lo, hi] for the exact height of a timestamp
func (h *Handler) SearchHeight(w http.ResponseWriter, r *http.Request) {
	ts, err := queryInt(r, "timestamp")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hi, err := queryInt(r, "hi")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var lo int64
	if r.URL.Query().Has("lo") {
		if lo, err = queryInt(r, "lo"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	height, err := h.Estimator.SearchHeightForTimestamp(r.Context(), ts, lo, hi)
	if err != nil {
		h.heightError(w, "Failed to search height", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": ts,
		"height":    height,
	})
}

// AverageStep measures the seconds per block between two heights
func (h *Handler) AverageStep(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := queryInt(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	avg, err := h.Estimator.AverageStepBetween(r.Context(), from, to)
	if err != nil {
		h.heightError(w, "Failed to measure average step", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":         from,
		"to":           to,
		"average_step": avg,
	})
}

// PutBlock handles POST requests adding a block to the local ledger index
func (h *Handler) PutBlock(w http.ResponseWriter, r *http.Request) {
	var block models.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		logger.Logger.Error("Failed to decode block", zap.Error(err))
		writeError(w, http.StatusBadRequest, errors.New("invalid request payload"))
		return
	}

	if err := h.Blocks.PutBlock(&block); err != nil {
		logger.Logger.Error("Failed to index block", zap.Int64("height", block.Height), zap.Error(err))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	logger.Logger.Info("Indexed block", zap.Int64("height", block.Height), zap.Int64("timestamp", block.Timestamp))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Block indexed successfully",
		"block":   block,
	})
}

// heightError reports a failed lookup. Abandoned requests get no response
// and no error log.
func (h *Handler) heightError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, estimator.ErrCancelled) {
		logger.Logger.Debug("Request cancelled", zap.Error(err))
		return
	}

	logger.Logger.Error(msg, zap.Error(err))
	if errors.Is(err, oracle.ErrOracleUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func parseDerived(w http.ResponseWriter, r *http.Request) (*big.Int, bool) {
	s := mux.Vars(r)["derived"]
	derived, ok := new(big.Int).SetString(s, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("derived id %q is not a decimal integer", s))
		return nil, false
	}
	return derived, true
}

func queryInt(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q: %w", name, err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}
