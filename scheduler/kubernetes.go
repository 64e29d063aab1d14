package scheduler

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/dghoshal-lbl/madats/cmn/errs"
	"github.com/dghoshal-lbl/madats/core/task"
)

// KubeRunner submits a task as a batch Job instead of a shell submit
// command - a fourth scheduler backend alongside NONE/SLURM/PBS, built on
// k8s.io/client-go.
type KubeRunner struct {
	clientset *kubernetes.Clientset
	namespace string
	image     string
}

func NewKubeRunner(namespace, image string) (*KubeRunner, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "loading in-cluster kubernetes config")
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "building kubernetes clientset")
	}
	return &KubeRunner{clientset: cs, namespace: namespace, image: image}, nil
}

// Submit creates a Job that runs scriptPath (already rendered to disk on a
// shared volume mount) as the job's entrypoint, mapping t.SchedulerOpts
// into resource requests/limits the way the directive-based adapters map
// them into script header lines.
func (r *KubeRunner) Submit(ctx context.Context, t *task.Task, scriptPath string) (string, error) {
	backoff := int32(0)
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: "madats-" + sanitizeName(t.ID) + "-",
			Namespace:    r.namespace,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoff,
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:      "task",
							Image:     r.image,
							Command:   []string{"/bin/bash", scriptPath},
							Resources: resourceRequirements(t.SchedulerOpts),
						},
					},
				},
			},
		},
	}

	created, err := r.clientset.BatchV1().Jobs(r.namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return "", errs.Wrap(errs.SchedulerAdapter, err, "submitting kubernetes job for task %s", t.ID)
	}
	return created.Name, nil
}

func resourceRequirements(opts map[string]string) corev1.ResourceRequirements {
	reqs := corev1.ResourceList{}
	if cpu, ok := opts["cpus"]; ok {
		reqs[corev1.ResourceCPU] = resourceQuantity(cpu)
	}
	if mem, ok := opts["memory"]; ok {
		reqs[corev1.ResourceMemory] = resourceQuantity(mem)
	}
	if len(reqs) == 0 {
		return corev1.ResourceRequirements{}
	}
	return corev1.ResourceRequirements{Requests: reqs, Limits: reqs}
}

func resourceQuantity(v string) resource.Quantity {
	q, err := resource.ParseQuantity(v)
	if err != nil {
		return resource.Quantity{}
	}
	return q
}

func sanitizeName(id string) string {
	out := []byte(id)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			out[i] = '-'
		}
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return string(out)
}
