// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Method names a family of rating models.
type Method string

const (
	UserBased Method = "user_based"
	ItemBased Method = "item_based"
	Baseline  Method = "baseline"
)

// Methods lists every supported family.
var Methods = []Method{UserBased, ItemBased, Baseline}

func ParseMethod(s string) (Method, error) {
	method := Method(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Methods, method) {
		return "", errors.NotSupportedf("method %q", s)
	}
	return method, nil
}

type Similarity string

const (
	Cosine  Similarity = "cosine"
	Pearson Similarity = "pearson"
	Jaccard Similarity = "jaccard"
	MSD     Similarity = "msd"
)

var Similarities = []Similarity{Cosine, Pearson, Jaccard, MSD}

// Normalization is applied to ratings before neighbors are compared.
type Normalization string

const (
	NormNone     Normalization = "none"
	NormMean     Normalization = "mean"
	NormZScore   Normalization = "zscore"
	NormBaseline Normalization = "baseline"
)

var Normalizations = []Normalization{NormNone, NormMean, NormZScore, NormBaseline}

// Axis selects whether normalization statistics are taken per user (row) or per item (column).
type Axis string

const (
	Row    Axis = "row"
	Column Axis = "column"
)

var Axes = []Axis{Row, Column}

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	SimilarityName    ParamName = "similarity"
	NeighborsName     ParamName = "neighbors"
	SampleSizeName    ParamName = "sample_size"
	NormalizationName ParamName = "normalization"
	AxisName          ParamName = "normalization_axis"
	RandomStateName   ParamName = "random_state"
	KName             ParamName = "k"
	LambdaUserName    ParamName = "lambda_user"
	LambdaItemName    ParamName = "lambda_item"
	MaxIterName       ParamName = "max_iter"
	ToleranceName     ParamName = "tolerance"
)

// Param is a serialized hyper-parameter.
type Param struct {
	Name  ParamName
	Value string
}

// Params is the hyper-parameter bag of one model family.
type Params interface {
	Method() Method
	// Serialize returns hyper-parameters in a fixed order.
	Serialize() []Param
	Validate() error
	Columns() Columns
}

// Neutral is the column value of an axis that does not apply to a family.
const Neutral = "-"

// Columns are the grid axes denormalized onto a result row.
type Columns struct {
	Similarity        string
	Neighbors         int
	SampleSize        int
	Normalization     string
	NormalizationAxis string
	LambdaUser        float64
	LambdaItem        float64
}

// UserBasedParams configures a user-based neighborhood model.
type UserBasedParams struct {
	Similarity    Similarity
	Neighbors     int
	SampleSize    int // zero uses every training user as candidate
	Normalization Normalization
	Axis          Axis
	RandomState   int64
}

func (p UserBasedParams) Method() Method {
	return UserBased
}

func (p UserBasedParams) Serialize() []Param {
	return []Param{
		{SimilarityName, string(p.Similarity)},
		{NeighborsName, strconv.Itoa(p.Neighbors)},
		{SampleSizeName, strconv.Itoa(p.SampleSize)},
		{NormalizationName, string(p.Normalization)},
		{AxisName, string(p.Axis)},
		{RandomStateName, strconv.FormatInt(p.RandomState, 10)},
	}
}

func (p UserBasedParams) Validate() error {
	if p.Neighbors <= 0 {
		return errors.NotValidf("neighbors %d", p.Neighbors)
	}
	if p.SampleSize < 0 {
		return errors.NotValidf("sample size %d", p.SampleSize)
	}
	return validateNeighborhood(p.Similarity, p.Normalization, p.Axis)
}

func (p UserBasedParams) Columns() Columns {
	return Columns{
		Similarity:        string(p.Similarity),
		Neighbors:         p.Neighbors,
		SampleSize:        p.SampleSize,
		Normalization:     string(p.Normalization),
		NormalizationAxis: string(p.Axis),
	}
}

// ItemBasedParams configures an item-based neighborhood model.
type ItemBasedParams struct {
	Similarity    Similarity
	K             int
	Normalization Normalization
	Axis          Axis
}

func (p ItemBasedParams) Method() Method {
	return ItemBased
}

func (p ItemBasedParams) Serialize() []Param {
	return []Param{
		{SimilarityName, string(p.Similarity)},
		{KName, strconv.Itoa(p.K)},
		{NormalizationName, string(p.Normalization)},
		{AxisName, string(p.Axis)},
	}
}

func (p ItemBasedParams) Validate() error {
	if p.K <= 0 {
		return errors.NotValidf("k %d", p.K)
	}
	return validateNeighborhood(p.Similarity, p.Normalization, p.Axis)
}

func (p ItemBasedParams) Columns() Columns {
	return Columns{
		Similarity:        string(p.Similarity),
		Neighbors:         p.K,
		Normalization:     string(p.Normalization),
		NormalizationAxis: string(p.Axis),
	}
}

// BaselineParams configures the regularized bias model.
type BaselineParams struct {
	LambdaUser float64
	LambdaItem float64
	MaxIter    int
	Tolerance  float64
}

func (p BaselineParams) Method() Method {
	return Baseline
}

func (p BaselineParams) Serialize() []Param {
	return []Param{
		{LambdaUserName, encoding.FormatFloat64(p.LambdaUser)},
		{LambdaItemName, encoding.FormatFloat64(p.LambdaItem)},
		{MaxIterName, strconv.Itoa(p.MaxIter)},
		{ToleranceName, encoding.FormatFloat64(p.Tolerance)},
	}
}

func (p BaselineParams) Validate() error {
	if p.LambdaUser < 0 || p.LambdaItem < 0 {
		return errors.NotValidf("regularization (%v, %v)", p.LambdaUser, p.LambdaItem)
	}
	if p.MaxIter <= 0 {
		return errors.NotValidf("max iterations %d", p.MaxIter)
	}
	if p.Tolerance < 0 {
		return errors.NotValidf("tolerance %v", p.Tolerance)
	}
	return nil
}

func (p BaselineParams) Columns() Columns {
	return Columns{
		Similarity:        Neutral,
		Normalization:     Neutral,
		NormalizationAxis: Neutral,
		LambdaUser:        p.LambdaUser,
		LambdaItem:        p.LambdaItem,
	}
}

func validateNeighborhood(similarity Similarity, normalization Normalization, axis Axis) error {
	if !lo.Contains(Similarities, similarity) {
		return errors.NotValidf("similarity %q", similarity)
	}
	if !lo.Contains(Normalizations, normalization) {
		return errors.NotValidf("normalization %q", normalization)
	}
	if !lo.Contains(Axes, axis) {
		return errors.NotValidf("normalization axis %q", axis)
	}
	return nil
}

// Hash returns a stable digest of a method and its ordered hyper-parameters. Equal inputs always give
// equal digests, across processes and platforms.
func Hash(method Method, params []Param) string {
	h := sha256.New()
	h.Write([]byte(method))
	for _, param := range params {
		h.Write([]byte{0})
		h.Write([]byte(param.Name))
		h.Write([]byte{1})
		h.Write([]byte(param.Value))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Key is the digest of a parameter bag.
func Key(p Params) string {
	return Hash(p.Method(), p.Serialize())
}

// String formats hyper-parameters for logs and reports.
func String(params []Param) string {
	return strings.Join(lo.Map(params, func(p Param, _ int) string {
		return string(p.Name) + "=" + p.Value
	}), ", ")
}
