package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// View 表示当前界面状态
type View int

const (
	ViewUpload View = iota
	ViewDashboard
	ViewJobDetails
)

// String 方法使得 View 可以被打印
func (v View) String() string {
	switch v {
	case ViewUpload:
		return "UPLOAD"
	case ViewDashboard:
		return "DASHBOARD"
	case ViewJobDetails:
		return "JOB_DETAILS"
	default:
		return "UNKNOWN"
	}
}

// ParseView 解析 upload / dashboard / job_details（大小写不敏感）
func ParseView(s string) (View, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UPLOAD":
		return ViewUpload, nil
	case "DASHBOARD":
		return ViewDashboard, nil
	case "JOB_DETAILS", "JOBDETAILS":
		return ViewJobDetails, nil
	}
	return ViewUpload, fmt.Errorf("未知视图: %q", s)
}

// MarshalJSON 以字符串形式输出
func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON 从字符串解析
func (v *View) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseView(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
