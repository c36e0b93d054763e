package workflows

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

const (
	loadTemplate = `import pandas as pd
df = pd.read_csv(%s)
columns = %s
if columns:
    df = df[columns]
{"rows": int(len(df)), "columns": [str(c) for c in df.columns]}`

	analyzeTemplate = `import json
json.loads(df.describe(include="all").to_json())`

	visualizeTemplate = `import base64, io
import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt
numeric = df.select_dtypes("number")
if numeric.empty:
    chart = None
else:
    numeric.plot(kind="hist", alpha=0.5)
    buf = io.BytesIO()
    plt.savefig(buf, format="png")
    plt.close("all")
    chart = base64.b64encode(buf.getvalue()).decode()
{"image/png": chart}`
)

func analysisUnit() workflow.Unit {
	return workflow.Unit{
		Name: "analysis",
		Callables: []workflow.Callable{
			workflow.Mark("data_analysis", dataAnalysis,
				workflow.WithParams("data_url", "columns"),
				workflow.WithDefaults(workflow.Params{"columns": []any{}}),
			),
		},
	}
}

// dataAnalysis loads a CSV into the session, summarizes it and draws a
// histogram of its numeric columns. The steps share interpreter state, so
// order matters. The summary step is persisted.
func dataAnalysis(ctx context.Context, subject string, sb sandbox.Session, params workflow.Params) (workflow.Result, error) {
	url, err := params.String("data_url")
	if err != nil {
		return nil, err
	}
	columns, err := params.Strings("columns")
	if err != nil {
		return nil, err
	}
	if columns == nil {
		columns = []string{}
	}

	urlLit, err := json.Marshal(url)
	if err != nil {
		return nil, err
	}
	colsLit, err := json.Marshal(columns)
	if err != nil {
		return nil, err
	}

	steps := []step{
		{name: "load", code: fmt.Sprintf(loadTemplate, urlLit, colsLit)},
		{name: "analysis", code: analyzeTemplate, persist: true},
		{name: "visualization", code: visualizeTemplate},
	}

	result := workflow.Result{}
	for _, s := range steps {
		s.language = sandbox.DefaultLanguage
		exec, err := runStep(ctx, sb, subject, s)
		if err != nil {
			return nil, err
		}
		result[s.name] = section(exec)
	}
	return result, nil
}
