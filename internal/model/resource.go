package model

import "encoding/json"

// ResourceDescriptor 任务模板携带的学习资源描述
type ResourceDescriptor struct {
	URL   string `json:"url"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

func EncodeResources(resources []ResourceDescriptor) (string, error) {
	if len(resources) == 0 {
		return "", nil
	}
	data, err := json.Marshal(resources)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *TaskTemplate) DecodeResources() []ResourceDescriptor {
	if t.Resources == "" {
		return []ResourceDescriptor{}
	}
	var resources []ResourceDescriptor
	if err := json.Unmarshal([]byte(t.Resources), &resources); err != nil {
		return []ResourceDescriptor{}
	}
	return resources
}
