package integrity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eslsoft/hanguru/internal/entity"
)

var dangerousSVGTags = []string{"script", "object", "embed", "iframe"}

// structuralChecks runs per-extension format validation. Probe failures are
// recorded as format_validation_error issues, never propagated.
func (s *Service) structuralChecks(ctx context.Context, rel, full string, size int64) (issues, warnings []entity.IntegrityIssue) {
	switch entity.ClassifyAsset(filepath.Ext(rel)) {
	case entity.AssetAudio:
		issues, warnings = s.checkAudio(ctx, rel, full)
		warnings = append(warnings, sizeAdvisory(rel, size, s.limits.MaxAudioBytes, "audio")...)
	case entity.AssetVideo:
		issues = s.checkVideo(ctx, rel, full)
		warnings = sizeAdvisory(rel, size, s.limits.MaxVideoBytes, "video")
	case entity.AssetImage:
		issues, warnings = s.checkImage(ctx, rel, full)
		warnings = append(warnings, sizeAdvisory(rel, size, s.limits.MaxImageBytes, "image")...)
	case entity.AssetSVG:
		issues, warnings = checkSVG(rel, full)
		warnings = append(warnings, sizeAdvisory(rel, size, s.limits.MaxSVGBytes, "svg")...)
	}
	return issues, warnings
}

func (s *Service) checkAudio(ctx context.Context, rel, full string) (issues, warnings []entity.IntegrityIssue) {
	if s.prober == nil {
		return nil, nil
	}
	info, err := s.prober.Probe(ctx, full)
	if err != nil {
		return []entity.IntegrityIssue{probeFailure(rel, err)}, nil
	}
	if !info.HasAudio {
		return []entity.IntegrityIssue{{
			Type:    entity.IssueFormatError,
			File:    rel,
			Message: "file contains no audio stream",
		}}, nil
	}
	if info.SampleRate > 0 && info.SampleRate < s.limits.MinSampleRate {
		warnings = append(warnings, entity.IntegrityIssue{
			Type:    entity.AdvisoryAudioQuality,
			File:    rel,
			Message: fmt.Sprintf("sample rate %d Hz is below the %d Hz floor", info.SampleRate, s.limits.MinSampleRate),
		})
	}
	return nil, warnings
}

func (s *Service) checkVideo(ctx context.Context, rel, full string) []entity.IntegrityIssue {
	if s.prober == nil {
		return nil
	}
	info, err := s.prober.Probe(ctx, full)
	if err != nil {
		return []entity.IntegrityIssue{probeFailure(rel, err)}
	}
	if !info.HasVideo {
		return []entity.IntegrityIssue{{
			Type:    entity.IssueFormatError,
			File:    rel,
			Message: "file contains no video stream",
		}}
	}
	return nil
}

func (s *Service) checkImage(ctx context.Context, rel, full string) (issues, warnings []entity.IntegrityIssue) {
	if s.prober == nil {
		return nil, nil
	}
	info, err := s.prober.Probe(ctx, full)
	if err != nil {
		return []entity.IntegrityIssue{probeFailure(rel, err)}, nil
	}
	if info.Width <= 0 || info.Height <= 0 {
		return []entity.IntegrityIssue{{
			Type:    entity.IssueFormatError,
			File:    rel,
			Message: "image has zero width or height",
		}}, nil
	}
	if info.Width > s.limits.MaxImageDimension || info.Height > s.limits.MaxImageDimension {
		warnings = append(warnings, entity.IntegrityIssue{
			Type:    entity.AdvisoryImageDimensions,
			File:    rel,
			Message: fmt.Sprintf("image is %dx%d, larger than the %dpx limit", info.Width, info.Height, s.limits.MaxImageDimension),
		})
	}
	return nil, warnings
}

// checkSVG scans for the svg envelope and embedded active content. Dangerous
// tags are security advisories, not hard failures.
func checkSVG(rel, full string) (issues, warnings []entity.IntegrityIssue) {
	data, err := os.ReadFile(full)
	if err != nil {
		return []entity.IntegrityIssue{{
			Type:    entity.IssueCorruptFile,
			File:    rel,
			Message: fmt.Sprintf("unreadable: %v", err),
		}}, nil
	}
	content := strings.ToLower(string(data))
	if !strings.Contains(content, "<svg") || !strings.Contains(content, "</svg>") {
		issues = append(issues, entity.IntegrityIssue{
			Type:    entity.IssueFormatError,
			File:    rel,
			Message: "missing <svg> envelope",
		})
	}
	for _, tag := range dangerousSVGTags {
		if strings.Contains(content, "<"+tag) {
			warnings = append(warnings, entity.IntegrityIssue{
				Type:    entity.AdvisorySVGSecurity,
				File:    rel,
				Message: fmt.Sprintf("embedded <%s> tag is not allowed in lesson assets", tag),
			})
		}
	}
	return issues, warnings
}

func sizeAdvisory(rel string, size, limit int64, class string) []entity.IntegrityIssue {
	if limit <= 0 || size <= limit {
		return nil
	}
	return []entity.IntegrityIssue{{
		Type:    entity.AdvisoryFileSize,
		File:    rel,
		Message: fmt.Sprintf("%s file is %d bytes, above the %d byte ceiling", class, size, limit),
	}}
}

func probeFailure(rel string, err error) entity.IntegrityIssue {
	return entity.IntegrityIssue{
		Type:    entity.IssueFormatValidation,
		File:    rel,
		Message: fmt.Sprintf("format probe failed: %v", err),
	}
}
