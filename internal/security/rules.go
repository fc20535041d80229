package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/costwatch/costwatch/pkg/models"
)

// Admin-equivalent Linux capabilities. Granting any of these hands the
// container a kernel-level escape path.
var dangerousCapabilities = map[string]bool{
	"ALL":          true,
	"SYS_ADMIN":    true,
	"NET_ADMIN":    true,
	"SYS_PTRACE":   true,
	"SYS_MODULE":   true,
	"DAC_OVERRIDE": true,
}

// Ports whose exposure to all interfaces is treated as critical.
var sensitivePorts = map[int]string{
	22:    "SSH",
	3306:  "MySQL",
	5432:  "PostgreSQL",
	6379:  "Redis",
	27017: "MongoDB",
	9200:  "Elasticsearch",
	5984:  "CouchDB",
	3389:  "RDP",
}

// Env var name fragments that usually mean a credential is stored inline.
var secretEnvPatterns = []string{"PASSWORD", "SECRET", "KEY", "TOKEN"}

// rule is one data-described check. Every rule runs every cycle; there is
// no short-circuiting, so a report always reflects the full rule set.
type rule struct {
	id    string
	check func(cfg *models.ContainerConfig, params Params) []models.SecurityFinding
}

// Params carries the tunable inputs of the rule set.
type Params struct {
	OutdatedImageAge time.Duration
	Now              time.Time
}

// registry is the fixed, ordered rule set. Adding a rule means appending
// here; the evaluator's control flow never changes.
var registry = []rule{
	{id: "running-as-root", check: checkRunningAsRoot},
	{id: "privileged-mode", check: checkPrivileged},
	{id: "exposed-sensitive-port", check: checkExposedPorts},
	{id: "dangerous-capability", check: checkCapabilities},
	{id: "secret-in-env", check: checkSecretsInEnv},
	{id: "writable-rootfs", check: checkWritableRootfs},
	{id: "outdated-image", check: checkImageAge},
	{id: "seccomp-disabled", check: checkSeccomp},
	{id: "apparmor-disabled", check: checkAppArmor},
}

func checkRunningAsRoot(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	switch cfg.User {
	case "", "root", "0", "0:0":
		return []models.SecurityFinding{{
			RuleID:      "running-as-root",
			Severity:    models.SeverityCritical,
			Message:     "Container runs as root (UID 0)",
			Remediation: "Add 'USER 1000' to the Dockerfile or start with --user=1000:1000",
		}}
	}
	return nil
}

func checkPrivileged(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	if !cfg.Privileged {
		return nil
	}
	return []models.SecurityFinding{{
		RuleID:      "privileged-mode",
		Severity:    models.SeverityCritical,
		Message:     "Container runs in privileged mode",
		Remediation: "Remove --privileged and grant only the capabilities the workload needs via --cap-add",
	}}
}

func checkExposedPorts(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	var findings []models.SecurityFinding
	for _, binding := range cfg.Ports {
		if !binding.BoundToAllInterfaces() {
			continue
		}

		if service, sensitive := sensitivePorts[binding.ContainerPort]; sensitive {
			findings = append(findings, models.SecurityFinding{
				RuleID:      "exposed-sensitive-port",
				Severity:    models.SeverityCritical,
				Message:     fmt.Sprintf("%s port %d is bound to all interfaces", service, binding.ContainerPort),
				Remediation: fmt.Sprintf("Bind to loopback only: -p 127.0.0.1:%d:%d, or restrict with a firewall", binding.HostPort, binding.ContainerPort),
			})
		} else {
			findings = append(findings, models.SecurityFinding{
				RuleID:      "exposed-sensitive-port",
				Severity:    models.SeverityHigh,
				Message:     fmt.Sprintf("Port %d is bound to all interfaces", binding.ContainerPort),
				Remediation: fmt.Sprintf("Bind to loopback only: -p 127.0.0.1:%d:%d, or restrict with a firewall", binding.HostPort, binding.ContainerPort),
			})
		}
	}
	return findings
}

func checkCapabilities(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	var granted []string
	for _, cap := range cfg.CapAdd {
		name := strings.TrimPrefix(strings.ToUpper(cap), "CAP_")
		if dangerousCapabilities[name] {
			granted = append(granted, name)
		}
	}

	if len(granted) == 0 {
		return nil
	}

	list := strings.Join(granted, ", ")
	return []models.SecurityFinding{{
		RuleID:      "dangerous-capability",
		Severity:    models.SeverityHigh,
		Message:     "Admin-equivalent capabilities granted: " + list,
		Remediation: "Drop these capabilities (--cap-drop=" + list + ") or add only what the workload needs",
	}}
}

func checkSecretsInEnv(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	var findings []models.SecurityFinding
	for _, name := range cfg.EnvNames {
		upper := strings.ToUpper(name)
		for _, pattern := range secretEnvPatterns {
			if strings.Contains(upper, pattern) {
				findings = append(findings, models.SecurityFinding{
					RuleID:      "secret-in-env",
					Severity:    models.SeverityMedium,
					Message:     "Environment variable " + name + " looks like an inline secret",
					Remediation: "Move the value to a secrets manager or mount it as a read-only file",
				})
				break
			}
		}
	}
	return findings
}

func checkWritableRootfs(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	if cfg.ReadonlyRootfs {
		return nil
	}
	return []models.SecurityFinding{{
		RuleID:      "writable-rootfs",
		Severity:    models.SeverityLow,
		Message:     "Root filesystem is writable",
		Remediation: "Start with --read-only and a tmpfs for scratch space: --read-only --tmpfs /tmp",
	}}
}

func checkImageAge(cfg *models.ContainerConfig, params Params) []models.SecurityFinding {
	// Zero creation time means the runtime could not report it; age unknown
	// is not the same as outdated.
	if cfg.ImageCreated.IsZero() {
		return nil
	}

	age := params.Now.Sub(cfg.ImageCreated)
	if age <= params.OutdatedImageAge {
		return nil
	}

	days := int(age.Hours() / 24)
	return []models.SecurityFinding{{
		RuleID:      "outdated-image",
		Severity:    models.SeverityMedium,
		Message:     fmt.Sprintf("Image is %d days old", days),
		Remediation: "Rebuild the image on a current base to pick up security patches",
	}}
}

func checkSeccomp(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	for _, opt := range cfg.SecurityOpts {
		if opt == "seccomp=unconfined" {
			return []models.SecurityFinding{{
				RuleID:      "seccomp-disabled",
				Severity:    models.SeverityHigh,
				Message:     "Seccomp syscall filtering is disabled",
				Remediation: "Remove seccomp=unconfined or supply a custom seccomp profile",
			}}
		}
	}
	return nil
}

func checkAppArmor(cfg *models.ContainerConfig, _ Params) []models.SecurityFinding {
	for _, opt := range cfg.SecurityOpts {
		if opt == "apparmor=unconfined" {
			return []models.SecurityFinding{{
				RuleID:      "apparmor-disabled",
				Severity:    models.SeverityMedium,
				Message:     "AppArmor confinement is disabled",
				Remediation: "Remove apparmor=unconfined to restore the default profile",
			}}
		}
	}
	return nil
}
