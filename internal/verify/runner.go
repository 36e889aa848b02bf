package verify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheMichaelB/crosscheck/internal/config"
	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// Runner replays a platform dataset against the local crypto implementation.
// Every item is a one-shot pure comparison with a terminal PASS or FAIL;
// the runner holds no history and never mutates the dataset it borrows.
type Runner struct {
	crypto        crypto.Provider
	logger        *events.Logger
	itemTimeout   time.Duration
	maxConcurrent int
}

// NewRunner creates a verification runner.
func NewRunner(provider crypto.Provider, cfg *config.VerifyConfig, logger *events.Logger) *Runner {
	return &Runner{
		crypto:        provider,
		logger:        logger.WithField("component", "runner"),
		itemTimeout:   cfg.ItemTimeout,
		maxConcurrent: cfg.MaxConcurrent,
	}
}

// category is one independently schedulable batch of items. Items within a
// category run in declared order; categories run concurrently and write to
// disjoint result slots merged afterward.
type category struct {
	name string
	run  func(ctx context.Context) []models.VerificationResult
}

// VerifyDataset replays every vector, edge case, and file record of the
// dataset and aggregates the results. A failing item never aborts the run.
func (r *Runner) VerifyDataset(ctx context.Context, ds *models.PlatformDataset) *Report {
	report := newReport(ds.Platform, ds.Version)

	var categories []category
	for i := range ds.Suites {
		suite := &ds.Suites[i]
		categories = append(categories, category{
			name: string(suite.Algorithm),
			run:  func(ctx context.Context) []models.VerificationResult { return r.verifySuite(ctx, suite) },
		})
	}
	if ds.EdgeCases != nil {
		group := ds.EdgeCases
		categories = append(categories, category{
			name: "edge_cases",
			run:  func(ctx context.Context) []models.VerificationResult { return r.verifyEdgeCases(ctx, group) },
		})
	}
	if len(ds.FileVectors) > 0 {
		categories = append(categories, category{
			name: "encrypted_files",
			run:  func(ctx context.Context) []models.VerificationResult { return r.verifyFileVectors(ctx, ds) },
		})
	}

	// One exclusive result slot per category; merged in declared order
	// after the join so suite order survives concurrent scheduling.
	slots := make([][]models.VerificationResult, len(categories))
	sem := make(chan struct{}, r.maxConcurrent)
	var wg sync.WaitGroup

	for i, cat := range categories {
		wg.Add(1)
		go func(i int, cat category) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			slots[i] = cat.run(ctx)
		}(i, cat)
	}
	wg.Wait()

	for _, results := range slots {
		for _, res := range results {
			report.add(res)
		}
	}

	report.Duration = time.Since(report.StartedAt)

	r.logger.WithFields(map[string]interface{}{
		"platform": ds.Platform,
		"total":    report.Total,
		"passed":   report.Passed,
		"failed":   report.Failed,
	}).Info("Verification complete")

	return report
}

// runItem executes one comparison under the per-item timeout. A timed-out
// item is recorded as FAIL, never left pending.
func (r *Runner) runItem(ctx context.Context, id, desc string, alg models.Algorithm, fn func() error) models.VerificationResult {
	res := models.VerificationResult{
		TestID:      id,
		Description: desc,
		Algorithm:   alg,
	}

	itemCtx, cancel := context.WithTimeout(ctx, r.itemTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Passed = true
		}
	case <-itemCtx.Done():
		res.Error = fmt.Sprintf("%v after %s", models.ErrItemTimeout, r.itemTimeout)
	}

	if !res.Passed {
		r.logger.WithFields(map[string]interface{}{
			"test_id": id,
			"error":   res.Error,
		}).Debug("Item failed")
	}
	return res
}

func (r *Runner) verifySuite(ctx context.Context, suite *models.TestSuite) []models.VerificationResult {
	results := make([]models.VerificationResult, 0, len(suite.Vectors))
	for i := range suite.Vectors {
		v := &suite.Vectors[i]
		results = append(results, r.runItem(ctx, v.ID, v.Description, v.Algorithm, func() error {
			return r.verifyVector(v)
		}))
	}
	return results
}

// verifyVector routes by algorithm tag. An unrecognized tag is a FAIL with
// an explicit error, never a silent skip.
func (r *Runner) verifyVector(v *models.TestVector) error {
	switch v.Algorithm {
	case models.AlgSecretBox:
		return r.verifySecretBox(v)
	case models.AlgSecretStream:
		return r.verifyStream(v)
	case models.AlgArgon2id:
		return r.verifyKDF(v)
	case models.AlgSealedBox:
		return r.verifySealedBox(v)
	default:
		return &models.UnknownAlgorithmError{Algorithm: string(v.Algorithm)}
	}
}

func (r *Runner) verifySecretBox(v *models.TestVector) error {
	plaintext, err := v.Input("plaintext")
	if err != nil {
		return err
	}
	key, err := v.Input("key")
	if err != nil {
		return err
	}
	ciphertext, err := v.Output("ciphertext")
	if err != nil {
		return err
	}
	nonce, err := v.Output("nonce")
	if err != nil {
		return err
	}

	recovered, err := r.crypto.Decrypt(ciphertext, key, nonce)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		return fmt.Errorf("plaintext mismatch: expected %d bytes, got %d bytes",
			len(plaintext), len(recovered))
	}
	return nil
}

func (r *Runner) verifyStream(v *models.TestVector) error {
	plaintext, err := v.Input("plaintext")
	if err != nil {
		return err
	}
	key, err := v.Input("key")
	if err != nil {
		return err
	}
	ciphertext, err := v.Output("ciphertext")
	if err != nil {
		return err
	}
	header, err := v.Output("header")
	if err != nil {
		return err
	}

	recovered, err := r.crypto.StreamDecrypt(ciphertext, key, header)
	if err != nil {
		return fmt.Errorf("stream decrypt: %w", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		return fmt.Errorf("plaintext mismatch: expected %d bytes, got %d bytes",
			len(plaintext), len(recovered))
	}
	return nil
}

// verifyKDF re-derives with the recorded costs, not platform defaults, so
// the comparison stays reproducible as defaults evolve.
func (r *Runner) verifyKDF(v *models.TestVector) error {
	password, err := v.Input("password")
	if err != nil {
		return err
	}
	salt, err := v.Input("salt")
	if err != nil {
		return err
	}
	expected, err := v.Output("key")
	if err != nil {
		return err
	}
	memCost, err := v.Param("mem_cost")
	if err != nil {
		return err
	}
	opsCost, err := v.Param("ops_cost")
	if err != nil {
		return err
	}

	key, err := r.crypto.DeriveKey(password, salt, memCost, opsCost)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	if !bytes.Equal(key, expected) {
		return &models.HashMismatchError{
			Name:     v.ID,
			Expected: models.EncodeBytes(expected),
			Actual:   models.EncodeBytes(key),
		}
	}
	return nil
}

func (r *Runner) verifySealedBox(v *models.TestVector) error {
	plaintext, err := v.Input("plaintext")
	if err != nil {
		return err
	}
	publicKey, err := v.Input("public_key")
	if err != nil {
		return err
	}
	secretKey, err := v.Input("secret_key")
	if err != nil {
		return err
	}
	sealed, err := v.Output("sealed")
	if err != nil {
		return err
	}

	if len(publicKey) != 32 || len(secretKey) != 32 {
		return fmt.Errorf("invalid recorded key pair sizes: %d/%d", len(publicKey), len(secretKey))
	}
	var pub, sec [32]byte
	copy(pub[:], publicKey)
	copy(sec[:], secretKey)

	recovered, err := r.crypto.SealDecrypt(sealed, &pub, &sec)
	if err != nil {
		return fmt.Errorf("seal decrypt: %w", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		return fmt.Errorf("plaintext mismatch: expected %d bytes, got %d bytes",
			len(plaintext), len(recovered))
	}
	return nil
}

func (r *Runner) verifyEdgeCases(ctx context.Context, group *models.EdgeCaseGroup) []models.VerificationResult {
	results := make([]models.VerificationResult, 0, len(group.Cases))
	for i := range group.Cases {
		c := &group.Cases[i]
		results = append(results, r.runItem(ctx, c.ID, c.Description, models.AlgSecretStream, func() error {
			return r.verifyEdgeCase(c)
		}))
	}
	return results
}

// verifyEdgeCase checks chunk arithmetic for every case and additionally
// round-trips the payload when it was inlined. Sentinel cases have no
// payload on purpose; only the structural check applies.
func (r *Runner) verifyEdgeCase(c *models.EdgeCase) error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size: %d", c.ChunkSize)
	}

	expected := (c.Size + c.ChunkSize - 1) / c.ChunkSize
	if c.ExpectedChunkCount != expected {
		return fmt.Errorf("chunk count mismatch for size %d: recorded %d, computed %d",
			c.Size, c.ExpectedChunkCount, expected)
	}

	if !c.Inline() {
		return nil
	}

	payload, err := decodeField(c.TestData, "test_data")
	if err != nil {
		return err
	}
	if int64(len(payload)) != c.Size {
		return fmt.Errorf("inline payload is %d bytes, recorded size %d", len(payload), c.Size)
	}
	key, err := decodeField(c.Key, "key")
	if err != nil {
		return err
	}

	ciphertext, header, err := r.crypto.StreamEncrypt(payload, key)
	if err != nil {
		return fmt.Errorf("stream encrypt: %w", err)
	}
	recovered, err := r.crypto.StreamDecrypt(ciphertext, key, header)
	if err != nil {
		return fmt.Errorf("stream decrypt: %w", err)
	}
	if !bytes.Equal(recovered, payload) {
		return fmt.Errorf("round trip mismatch at size %d", c.Size)
	}
	return nil
}

func (r *Runner) verifyFileVectors(ctx context.Context, ds *models.PlatformDataset) []models.VerificationResult {
	results := make([]models.VerificationResult, 0, len(ds.FileVectors))
	for i := range ds.FileVectors {
		rec := &ds.FileVectors[i]
		payload := ds.FilePayloads[rec.Filename]
		results = append(results, r.runItem(ctx, rec.ID, fmt.Sprintf("encrypted file %s", rec.Filename),
			models.AlgSecretStream, func() error {
				return r.verifyFileVector(rec, payload)
			}))
	}
	return results
}

// verifyFileVector checks the archived ciphertext hash before attempting
// decryption, so archive corruption is reported distinctly from a genuine
// decryption failure. The payload is copied to a scratch file and never
// decrypted in place.
func (r *Runner) verifyFileVector(rec *models.FileVectorRecord, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("missing archived payload %s", rec.Filename)
	}

	if actual := crypto.HashBytes(payload); actual != rec.EncryptedSHA256 {
		return &models.HashMismatchError{
			Name:     rec.Filename,
			Expected: rec.EncryptedSHA256,
			Actual:   actual,
		}
	}

	expected := (rec.OriginalSize + rec.ChunkSize - 1) / rec.ChunkSize
	if rec.ExpectedChunkCount != expected {
		return fmt.Errorf("chunk count mismatch for size %d: recorded %d, computed %d",
			rec.OriginalSize, rec.ExpectedChunkCount, expected)
	}

	key, err := decodeField(rec.Key, "key")
	if err != nil {
		return err
	}
	header, err := decodeField(rec.Header, "header")
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "crosscheck-verify-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	encPath := filepath.Join(scratch, rec.Filename)
	decPath := filepath.Join(scratch, rec.Filename+".dec")

	// Scratch copy; the dataset's bytes stay untouched.
	if err := os.WriteFile(encPath, payload, 0600); err != nil {
		return fmt.Errorf("write scratch copy: %w", err)
	}

	if err := r.crypto.DecryptFile(encPath, decPath, header, key); err != nil {
		return fmt.Errorf("decrypt file: %w", err)
	}

	info, err := os.Stat(decPath)
	if err != nil {
		return fmt.Errorf("stat decrypted file: %w", err)
	}
	if info.Size() != rec.OriginalSize {
		return fmt.Errorf("decrypted size %d, expected %d", info.Size(), rec.OriginalSize)
	}

	actual, err := r.crypto.HashFile(decPath)
	if err != nil {
		return fmt.Errorf("hash decrypted file: %w", err)
	}
	if actual != rec.OriginalSHA256 {
		return &models.HashMismatchError{
			Name:     rec.Filename,
			Expected: rec.OriginalSHA256,
			Actual:   actual,
		}
	}
	return nil
}

func decodeField(encoded, name string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return data, nil
}
