package store

import (
	"fmt"
	"ftpsched/internal/model"
	"net/netip"
	"strings"
)

type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func ValidateHost(host string) error {
	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}

	if !isHostname(host) {
		return &ValidationError{Field: "host", Value: fmt.Sprintf("%q", host), Reason: "not an IP address or hostname"}
	}

	return nil
}

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: "port", Value: port, Reason: "must be between 1 and 65535"}
	}

	return nil
}

func ValidateRemotePath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return &ValidationError{Field: "remote_path", Value: fmt.Sprintf("%q", p), Reason: `must start with "/"`}
	}

	return nil
}

func ValidateLocalPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return &ValidationError{Field: "local_path", Value: `""`, Reason: "must not be empty"}
	}

	return nil
}

func ValidateProtocol(p model.Protocol) error {
	switch p {
	case model.ProtocolFTP, model.ProtocolSFTP:
		return nil
	default:
		return &ValidationError{Field: "protocol", Value: fmt.Sprintf("%q", p), Reason: "must be ftp or sftp"}
	}
}

func ValidateEndpoint(ep model.Endpoint) error {
	if err := ValidateProtocol(ep.Scheme()); err != nil {
		return err
	}
	if err := ValidateHost(ep.Host); err != nil {
		return err
	}
	if err := ValidatePort(ep.Port); err != nil {
		return err
	}
	if err := ValidateRemotePath(ep.RemotePath); err != nil {
		return err
	}

	return ValidateLocalPath(ep.LocalPath)
}

// isHostname accepts RFC 1123 names. The last label may not be all digits,
// which rules out malformed dotted quads such as 300.1.1.1.
func isHostname(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}

	labels := strings.Split(host, ".")
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}

	last := labels[len(labels)-1]
	return strings.Trim(last, "0123456789") != ""
}
