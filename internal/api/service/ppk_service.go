// Package service provides business logic for the REST API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/remiblancher/ppkey/internal/api/dto"
	apierrors "github.com/remiblancher/ppkey/internal/api/errors"
	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/crypto"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

// ServiceActorID identifies the API server in audit events.
const ServiceActorID = "ppkey-api"

type remoteAddrKey struct{}

// WithRemoteAddr records the client address for audit events.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey{}, addr)
}

func actorFrom(ctx context.Context) audit.Actor {
	addr, _ := ctx.Value(remoteAddrKey{}).(string)
	return audit.Actor{Type: "service", ID: ServiceActorID, Host: addr}
}

// PPKService provides PPK conversions for the REST API.
type PPKService struct {
	defaultComment string
	auditLog       string
}

// NewPPKService creates a new PPKService. auditLog is the path served by
// the audit endpoints; events are written through the global audit writer.
func NewPPKService(defaultComment, auditLog string) *PPKService {
	if defaultComment == "" {
		defaultComment = ppk.DefaultComment
	}
	return &PPKService{defaultComment: defaultComment, auditLog: auditLog}
}

// Inspect describes a PPK key. Without a passphrase an encrypted key is
// described from its public part only.
func (s *PPKService) Inspect(ctx context.Context, req *dto.KeyInspectRequest) (*dto.KeyInfo, error) {
	data, err := decodeInput(&req.Key, "key")
	if err != nil {
		return nil, err
	}

	k, err := ppk.Decode(data)
	if err != nil {
		return nil, err
	}

	verified := false
	if req.Passphrase != "" || !k.Encryption().IsEncrypted() {
		if err := s.unlock(ctx, k, []byte(req.Passphrase)); err != nil {
			return nil, err
		}
		verified = true
	}

	info, err := describe(k, verified)
	if err != nil {
		return nil, err
	}

	event := audit.NewEvent(audit.EventKeyInspected, audit.ResultSuccess).
		WithActor(actorFrom(ctx)).
		WithObject(objectFor(info)).
		WithContext(audit.Context{Algorithm: info.Algorithm, Bits: info.Bits, Encryption: info.Encryption})
	if err := s.log(event); err != nil {
		return nil, err
	}
	return info, nil
}

// Import converts a PEM RSA private key to a PPK file.
func (s *PPKService) Import(ctx context.Context, req *dto.KeyImportRequest) (*dto.KeyResponse, error) {
	data, err := decodeInput(&req.Key, "key")
	if err != nil {
		return nil, err
	}

	priv, err := crypto.ParsePrivateKeyPEM(data, []byte(req.PEMPassphrase))
	if err != nil {
		if errors.Is(err, crypto.ErrEncryptedPEM) || errors.Is(err, crypto.ErrNotRSA) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apierrors.ErrInvalidRequest, err)
	}

	k, err := ppk.FromRSAPrivateKey(priv)
	if err != nil {
		return nil, err
	}

	resp, err := s.build(k, req.Comment, []byte(req.Passphrase))
	if err != nil {
		return nil, err
	}

	event := audit.NewEvent(audit.EventKeyImported, audit.ResultSuccess).
		WithActor(actorFrom(ctx)).
		WithObject(objectFor(&resp.Info)).
		WithContext(audit.Context{Algorithm: resp.Info.Algorithm, Bits: resp.Info.Bits, Encryption: resp.Info.Encryption, Format: "pem"})
	if err := s.log(event); err != nil {
		return nil, err
	}
	return resp, nil
}

// Export converts a PPK key to a PEM RSA private key.
func (s *PPKService) Export(ctx context.Context, req *dto.KeyExportRequest) (*dto.KeyExportResponse, error) {
	format := crypto.FormatPKCS1
	if req.Format != "" {
		f, err := crypto.ParsePEMFormat(req.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apierrors.ErrInvalidRequest, err)
		}
		format = f
	}

	k, err := s.parse(ctx, &req.Key, req.Passphrase)
	if err != nil {
		return nil, err
	}

	priv, err := k.RSAPrivateKey()
	if err != nil {
		return nil, err
	}
	pemData, err := crypto.MarshalPrivateKeyPEM(priv, format, []byte(req.PEMPassphrase))
	if err != nil {
		return nil, err
	}

	info, err := describe(k, true)
	if err != nil {
		return nil, err
	}

	ctxInfo := audit.Context{Algorithm: info.Algorithm, Bits: info.Bits, Format: string(format), Encryption: "none"}
	if req.PEMPassphrase != "" {
		ctxInfo.Encryption = "pem-aes256"
	}
	event := audit.NewEvent(audit.EventKeyExported, audit.ResultSuccess).
		WithActor(actorFrom(ctx)).
		WithObject(objectFor(info)).
		WithContext(ctxInfo)
	if err := s.log(event); err != nil {
		return nil, err
	}

	return &dto.KeyExportResponse{
		PEM:    dto.TextData(pemData),
		Format: string(format),
		Info:   *info,
	}, nil
}

// Convert re-encrypts a PPK key and optionally changes its comment.
func (s *PPKService) Convert(ctx context.Context, req *dto.KeyConvertRequest) (*dto.KeyResponse, error) {
	k, err := s.parse(ctx, &req.Key, req.Passphrase)
	if err != nil {
		return nil, err
	}

	comment := k.Comment()
	if req.Comment != nil {
		comment = *req.Comment
	}
	resp, err := s.build(k, comment, []byte(req.NewPassphrase))
	if err != nil {
		return nil, err
	}

	event := audit.NewEvent(audit.EventKeyConverted, audit.ResultSuccess).
		WithActor(actorFrom(ctx)).
		WithObject(objectFor(&resp.Info)).
		WithContext(audit.Context{Algorithm: resp.Info.Algorithm, Bits: resp.Info.Bits, Encryption: resp.Info.Encryption})
	if err := s.log(event); err != nil {
		return nil, err
	}
	return resp, nil
}

// Generate creates a new RSA key and returns it as a PPK file.
func (s *PPKService) Generate(ctx context.Context, req *dto.KeyGenerateRequest) (*dto.KeyResponse, error) {
	alg := crypto.AlgRSA2048
	if req.Algorithm != "" {
		a, err := crypto.ParseAlgorithm(req.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apierrors.ErrInvalidRequest, err)
		}
		alg = a
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kp, err := crypto.GenerateKeyPair(alg)
	if err != nil {
		return nil, err
	}
	k, err := ppk.FromRSAPrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, err
	}

	resp, err := s.build(k, req.Comment, []byte(req.Passphrase))
	if err != nil {
		return nil, err
	}

	event := audit.NewEvent(audit.EventKeyGenerated, audit.ResultSuccess).
		WithActor(actorFrom(ctx)).
		WithObject(objectFor(&resp.Info)).
		WithContext(audit.Context{Algorithm: string(alg), Bits: resp.Info.Bits, Encryption: resp.Info.Encryption})
	if err := s.log(event); err != nil {
		return nil, err
	}
	return resp, nil
}

// AuditLogs returns the last limit audit entries.
func (s *PPKService) AuditLogs(ctx context.Context, limit int) (*dto.AuditLogsResponse, error) {
	if s.auditLog == "" {
		return nil, apierrors.ErrAuditNotConfigured
	}
	events, err := audit.ReadEvents(s.auditLog, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditLogsResponse{Logs: make([]dto.AuditEntry, 0, len(events))}
	for _, e := range events {
		resp.Logs = append(resp.Logs, dto.AuditEntry{
			Timestamp:   e.Timestamp,
			Operation:   string(e.EventType),
			Actor:       e.Actor.Type + ":" + e.Actor.ID,
			Path:        e.Object.Path,
			Fingerprint: e.Object.Fingerprint,
			Success:     e.Result == audit.ResultSuccess,
			Reason:      e.Context.Reason,
			Hash:        e.Hash,
		})
	}
	return resp, nil
}

// AuditVerify checks the hash chain of the audit log.
func (s *PPKService) AuditVerify(ctx context.Context) (*dto.AuditVerifyResponse, error) {
	if s.auditLog == "" {
		return nil, apierrors.ErrAuditNotConfigured
	}
	count, err := audit.VerifyChain(s.auditLog)
	resp := &dto.AuditVerifyResponse{Valid: err == nil, EntryCount: count}
	if err != nil {
		resp.Errors = []string{err.Error()}
	}
	return resp, nil
}

// parse decodes and unlocks a PPK key from a request.
func (s *PPKService) parse(ctx context.Context, in *dto.BinaryData, passphrase string) (*ppk.Key, error) {
	data, err := decodeInput(in, "key")
	if err != nil {
		return nil, err
	}
	k, err := ppk.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.unlock(ctx, k, []byte(passphrase)); err != nil {
		return nil, err
	}
	return k, nil
}

// unlock unlocks k and records failed attempts.
func (s *PPKService) unlock(ctx context.Context, k *ppk.Key, passphrase []byte) error {
	err := k.Unlock(passphrase)
	if err == nil {
		return nil
	}
	if errors.Is(err, ppk.ErrPassphraseRequired) || errors.Is(err, ppk.ErrDecryptionFailed) {
		fp, _ := k.Fingerprint()
		event := audit.NewEvent(audit.EventAuthFailed, audit.ResultFailure).
			WithActor(actorFrom(ctx)).
			WithObject(audit.Object{Type: "ppk", Fingerprint: fp, Comment: k.Comment()}).
			WithContext(audit.Context{Reason: err.Error()})
		if logErr := s.log(event); logErr != nil {
			return logErr
		}
	}
	return err
}

// build applies the comment and serializes k.
func (s *PPKService) build(k *ppk.Key, comment string, passphrase []byte) (*dto.KeyResponse, error) {
	if comment == "" {
		comment = s.defaultComment
	}
	if err := k.SetComment(comment); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrInvalidRequest, err)
	}

	out, err := k.Marshal(passphrase)
	if err != nil {
		return nil, err
	}

	info, err := describe(k, true)
	if err != nil {
		return nil, err
	}
	info.Encryption = string(ppk.EncryptionNone)
	if len(passphrase) > 0 {
		info.Encryption = string(ppk.EncryptionAES256CBC)
	}

	return &dto.KeyResponse{PPK: dto.TextData(out), Info: *info}, nil
}

func (s *PPKService) log(event *audit.Event) error {
	if err := audit.Log(event); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrAuditFailed, err)
	}
	return nil
}

func describe(k *ppk.Key, verified bool) (*dto.KeyInfo, error) {
	fp, err := k.Fingerprint()
	if err != nil {
		return nil, err
	}
	line, err := k.AuthorizedKey()
	if err != nil {
		return nil, err
	}
	return &dto.KeyInfo{
		Algorithm:     k.Algorithm(),
		Bits:          k.Bits(),
		Comment:       k.Comment(),
		Encryption:    string(k.Encryption()),
		Fingerprint:   fp,
		AuthorizedKey: strings.TrimSuffix(string(line), "\n"),
		Verified:      verified,
	}, nil
}

func objectFor(info *dto.KeyInfo) audit.Object {
	return audit.Object{Type: "ppk", Fingerprint: info.Fingerprint, Comment: info.Comment}
}

func decodeInput(in *dto.BinaryData, field string) ([]byte, error) {
	if in == nil || in.Data == "" {
		return nil, fmt.Errorf("%w: %s is required", apierrors.ErrInvalidRequest, field)
	}
	data, err := in.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apierrors.ErrInvalidRequest, field, err)
	}
	return data, nil
}
