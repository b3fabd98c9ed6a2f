package drift

import (
	"strconv"
	"strings"

	"github.com/false-systems/nopea/internal/deploy"
)

// Normalize returns a deep copy of manifest with every volatile or
// cluster-managed field stripped, per the exhaustive list nopea's
// hashing relies on to distinguish real drift from cluster noise.
func Normalize(manifest deploy.Manifest) deploy.Manifest {
	m := deepCopyMap(manifest)

	delete(m, "status")

	if metadata, ok := m["metadata"].(map[string]interface{}); ok {
		for _, field := range []string{"resourceVersion", "uid", "creationTimestamp", "generation", "managedFields", "selfLink", "namespace"} {
			delete(metadata, field)
		}
		if annotations, ok := metadata["annotations"].(map[string]interface{}); ok {
			delete(annotations, "kubectl.kubernetes.io/last-applied-configuration")
			delete(annotations, "deployment.kubernetes.io/revision")
			if len(annotations) == 0 {
				delete(metadata, "annotations")
			}
		}
	}

	kind, _ := m["kind"].(string)
	switch kind {
	case "Deployment":
		normalizeDeployment(m)
	case "Service":
		normalizeService(m)
	}

	return deploy.Manifest(m)
}

func normalizeDeployment(m map[string]interface{}) {
	spec, ok := m["spec"].(map[string]interface{})
	if !ok {
		return
	}
	delete(spec, "replicas")

	if strategy, ok := spec["strategy"].(map[string]interface{}); ok {
		if rollingUpdate, ok := strategy["rollingUpdate"].(map[string]interface{}); ok {
			delete(rollingUpdate, "maxSurge")
		}
	}

	template, ok := spec["template"].(map[string]interface{})
	if !ok {
		return
	}
	podSpec, ok := template["spec"].(map[string]interface{})
	if !ok {
		return
	}
	for _, field := range []string{"dnsPolicy", "restartPolicy", "schedulerName", "securityContext", "terminationGracePeriodSeconds"} {
		delete(podSpec, field)
	}

	containers, _ := podSpec["containers"].([]interface{})
	for _, c := range containers {
		container, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		delete(container, "terminationMessagePath")
		delete(container, "terminationMessagePolicy")

		for _, probeField := range []string{"livenessProbe", "readinessProbe"} {
			if probe, ok := container[probeField].(map[string]interface{}); ok {
				delete(probe, "failureThreshold")
				delete(probe, "periodSeconds")
				delete(probe, "successThreshold")
			}
		}

		normalizeContainerCPU(container)
	}
}

// normalizeContainerCPU rewrites resources.limits.cpu from milli-form
// ("2000m") to whole-core form ("2") whenever the milli value is an
// exact whole-core count, so "2000m" and "2" hash identically.
func normalizeContainerCPU(container map[string]interface{}) {
	resources, ok := container["resources"].(map[string]interface{})
	if !ok {
		return
	}
	limits, ok := resources["limits"].(map[string]interface{})
	if !ok {
		return
	}
	cpu, ok := limits["cpu"].(string)
	if !ok || !strings.HasSuffix(cpu, "m") {
		return
	}
	millis, err := strconv.Atoi(strings.TrimSuffix(cpu, "m"))
	if err != nil || millis%1000 != 0 {
		return
	}
	limits["cpu"] = strconv.Itoa(millis / 1000)
}

func normalizeService(m map[string]interface{}) {
	spec, ok := m["spec"].(map[string]interface{})
	if !ok {
		return
	}
	for _, field := range []string{"clusterIP", "clusterIPs", "internalTrafficPolicy", "ipFamilies", "ipFamilyPolicy", "sessionAffinity"} {
		delete(spec, field)
	}
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
